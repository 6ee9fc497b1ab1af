package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VotingSession is the short-lived authenticated context created after a
// successful token verification. ElectorateID is nullable so that audit rows
// can be kept even when binding to a voter fails. Superseded or expired
// sessions are terminated in place, never deleted.
type VotingSession struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	ElectorateID       *uuid.UUID `gorm:"type:uuid;index" json:"electorate_id"`
	SessionToken       string     `gorm:"size:255;not null;uniqueIndex" json:"-"`
	IPAddress          string     `gorm:"size:45" json:"ip_address"`
	UserAgent          string     `gorm:"size:512" json:"user_agent"`
	LoginMethod        string     `gorm:"size:50" json:"login_method"`
	IsValid            bool       `gorm:"default:true;not null" json:"is_valid"`
	LastActivityAt     time.Time  `gorm:"not null" json:"last_activity_at"`
	ExpiresAt          time.Time  `gorm:"not null;index" json:"expires_at"`
	TerminatedAt       *time.Time `json:"terminated_at"`
	TerminationReason  string     `gorm:"size:255" json:"termination_reason"`
	SuspiciousActivity bool       `gorm:"default:false;not null" json:"suspicious_activity"`
	ActivityCount      int        `gorm:"default:0;not null" json:"activity_count"`
}

func (s *VotingSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.LastActivityAt.IsZero() {
		s.LastActivityAt = time.Now().UTC()
	}
	return nil
}

// Terminate marks the session invalid with a reason. The row itself is the
// audit record so nothing is deleted.
func (s *VotingSession) Terminate(reason string) {
	now := time.Now().UTC()
	s.IsValid = false
	s.TerminatedAt = &now
	s.TerminationReason = reason
}

// TouchActivity records activity and the caller address seen for it.
func (s *VotingSession) TouchActivity(ip string) {
	s.LastActivityAt = time.Now().UTC()
	s.ActivityCount++
	if ip != "" {
		s.IPAddress = ip
	}
}
