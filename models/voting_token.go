package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VotingToken stores only the SHA-256 digest of an issued voting token.
// The plaintext leaves the system exactly once, at issuance.
// At most one token per electorate is active at a time: issuing a new one
// revokes its predecessors (revoked rows are kept for audit, never deleted).
type VotingToken struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	ElectorateID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"electorate_id"`
	TokenHash     string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	IsActive      bool       `gorm:"default:true;not null" json:"is_active"`
	UsageCount    int        `gorm:"default:0;not null" json:"usage_count"`
	LastUsedAt    *time.Time `json:"last_used_at"`
	ExpiresAt     time.Time  `gorm:"not null;index" json:"expires_at"`
	Revoked       bool       `gorm:"default:false;not null" json:"revoked"`
	RevokedAt     *time.Time `json:"revoked_at"`
	RevokedReason string     `gorm:"size:255" json:"revoked_reason"`
}

func (t *VotingToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
