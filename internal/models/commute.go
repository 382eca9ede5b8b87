package models

import "time"

// TravelMode is the routing profile used for a commute.
type TravelMode string

const (
	ModeTransit   TravelMode = "transit"
	ModeDriving   TravelMode = "driving"
	ModeBicycling TravelMode = "bicycling"
)

// ValidModes is the set of supported travel modes.
var ValidModes = []TravelMode{ModeTransit, ModeDriving, ModeBicycling}

// IsValid checks if a travel mode is supported.
func (m TravelMode) IsValid() bool {
	for _, v := range ValidModes {
		if m == v {
			return true
		}
	}
	return false
}

// CommuteResult is the stored travel time for one residence/place/mode.
// The composite unique index is what makes concurrent upserts collapse into
// a single row.
type CommuteResult struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     string     `gorm:"type:text;not null;uniqueIndex:idx_commute_key,priority:1" json:"owner_id"`
	ResidenceID string     `gorm:"type:text;not null;uniqueIndex:idx_commute_key,priority:2;index" json:"residence_id"`
	PlaceID     string     `gorm:"type:text;not null;uniqueIndex:idx_commute_key,priority:3;index" json:"place_id"`
	Mode        TravelMode `gorm:"type:text;not null;uniqueIndex:idx_commute_key,priority:4" json:"mode"`
	Minutes     int        `gorm:"not null" json:"minutes"`
	Estimated   bool       `gorm:"not null;default:false" json:"estimated"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

// CommuteTask is one routing job. The owner travels with the task so that a
// worker never has to look it up.
type CommuteTask struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	ResidenceID string     `json:"residence_id"`
	PlaceID     string     `json:"place_id"`
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	Mode        TravelMode `json:"mode"`
	ArriveBy    string     `json:"arrive_by,omitempty"`
	DepartAt    string     `json:"depart_at,omitempty"`
	RequestedAt time.Time  `json:"requested_at"`
}
