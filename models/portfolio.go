package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Portfolio is an electable position (president, secretary, ...).
type Portfolio struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Name          string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Description   string    `json:"description"`
	IsActive      bool      `gorm:"default:true;not null" json:"is_active"`
	MaxCandidates int       `gorm:"default:1;not null" json:"max_candidates"`
	VotingOrder   int       `gorm:"default:0;not null" json:"voting_order"`

	Candidates []Candidate `gorm:"foreignKey:PortfolioID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"candidates,omitempty"`
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
