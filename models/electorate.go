package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Electorate is a registered voter. StudentID is stored in hyphen form
// (MLS-0201-19); the slash form is display-only, see pkg/studentid.
type Electorate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StudentID   string    `gorm:"size:50;not null;uniqueIndex" json:"student_id"`
	Program     string    `gorm:"size:100" json:"program"`
	YearLevel   int       `json:"year_level"`
	Email       string    `gorm:"size:255;index" json:"email"`
	PhoneNumber string    `gorm:"size:20" json:"phone_number"`
	HasVoted    bool      `gorm:"default:false;not null;index" json:"has_voted"`
	VotedAt     *time.Time `json:"voted_at"`
	IsDeleted   bool      `gorm:"default:false;not null" json:"is_deleted"`
	IsBanned    bool      `gorm:"default:false;not null" json:"is_banned"`

	VotingTokens   []VotingToken   `gorm:"foreignKey:ElectorateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VotingSessions []VotingSession `gorm:"foreignKey:ElectorateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Votes          []Vote          `gorm:"foreignKey:ElectorateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (e *Electorate) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
