package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vote records one decision of one electorate for one portfolio. A partial
// unique index on (electorate_id, portfolio_id) over valid rows (created in
// db.go) is the hard integrity guarantee: two concurrent casts for the same
// pair cannot both commit. Votes are immutable once written except for
// IsValid invalidation.
type Vote struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	ElectorateID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"electorate_id"`
	PortfolioID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	CandidateID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"candidate_id"`
	VotingSessionID *uuid.UUID `gorm:"type:uuid;index" json:"voting_session_id"`
	IPAddress       string     `gorm:"size:45" json:"ip_address"`
	UserAgent       string     `gorm:"size:512" json:"user_agent"`
	VotedAt         time.Time  `gorm:"not null" json:"voted_at"`
	IsValid         bool       `gorm:"default:true;not null" json:"is_valid"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.VotedAt.IsZero() {
		v.VotedAt = time.Now().UTC()
	}
	return nil
}
