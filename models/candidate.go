package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Candidate is an option under a portfolio.
type Candidate struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"size:255;not null;index" json:"name"`
	PortfolioID  uuid.UUID `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	Manifesto    string    `json:"manifesto"`
	Bio          string    `json:"bio"`
	PictureURL   string    `gorm:"size:500" json:"picture_url"`
	IsActive     bool      `gorm:"default:true;not null" json:"is_active"`
	DisplayOrder int       `gorm:"default:0;not null" json:"display_order"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
