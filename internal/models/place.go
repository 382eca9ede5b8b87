package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Place is somewhere the owner travels to regularly (work, school, family).
type Place struct {
	ID      string `gorm:"primaryKey;type:text" json:"id"`
	OwnerID string `gorm:"type:text;not null;index" json:"owner_id"`
	Label   string `json:"label"`
	Address string `json:"address"`

	// Local HH:MM times; empty when unconstrained.
	ArriveBy string `json:"arrive_by"`
	LeaveAt  string `json:"leave_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID to new places.
func (p *Place) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Destination is the text handed to the routing provider as the trip end.
func (p *Place) Destination() string {
	if a := strings.TrimSpace(p.Address); a != "" {
		return a
	}
	return strings.TrimSpace(p.Label)
}
