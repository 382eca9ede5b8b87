// Package routing turns an origin, a destination and a travel mode into a
// representative commute time.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
)

// Request is one routing query. ArriveBy and DepartAt are local HH:MM times.
type Request struct {
	Origin      string
	Destination string
	Mode        models.TravelMode
	ArriveBy    string
	DepartAt    string
}

// Result is a successful routing answer.
type Result struct {
	Minutes   int
	Estimated bool
}

// Provider answers routing requests. A nil Result with a nil error means the
// provider responded but had no duration for the trip.
type Provider interface {
	Route(ctx context.Context, req Request) (*Result, error)
}

// CredentialChecker is implemented by providers that need a configured
// credential before they can answer.
type CredentialChecker interface {
	CheckCredential() error
}

// ParseClock reads an HH:MM time of day.
func ParseClock(s string) (hour, minute int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// NextMonday returns the next Monday strictly after now at hour:minute in
// loc. On a Monday this is the Monday a week later.
func NextMonday(now time.Time, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	days := (8 - int(local.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	day := local.AddDate(0, 0, days)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

// TimeParam is the single time constraint sent to the provider.
type TimeParam struct {
	Name  string // "arrival_time" or "departure_time"
	Value int64  // Unix seconds
}

// TimeParams picks the time constraint for a request:
//   - transit with an arrive-by time arrives next Monday at that time
//   - any mode with a depart-at time leaves next Monday at that time
//   - transit without either leaves now
//   - other modes carry no time constraint
func TimeParams(req Request, now time.Time, loc *time.Location) *TimeParam {
	if req.Mode == models.ModeTransit {
		if h, m, ok := ParseClock(req.ArriveBy); ok {
			return &TimeParam{Name: "arrival_time", Value: NextMonday(now, h, m, loc).Unix()}
		}
	}
	if h, m, ok := ParseClock(req.DepartAt); ok {
		return &TimeParam{Name: "departure_time", Value: NextMonday(now, h, m, loc).Unix()}
	}
	if req.Mode == models.ModeTransit {
		return &TimeParam{Name: "departure_time", Value: now.Unix()}
	}
	return nil
}

type durationValue struct {
	Value *float64 `json:"value"`
}

type directionsStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type directionsResponse struct {
	Routes []struct {
		Legs []struct {
			Duration          *durationValue `json:"duration"`
			DurationInTraffic *durationValue `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// ParseMinutes extracts the first leg's travel time from a directions
// response, preferring the traffic-aware duration. It returns nil when the
// response carries no usable duration.
func ParseMinutes(body []byte) (*int, error) {
	var resp directionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse directions response: %w", err)
	}
	return resp.minutes(), nil
}

func (r *directionsResponse) minutes() *int {
	if len(r.Routes) == 0 || len(r.Routes[0].Legs) == 0 {
		return nil
	}
	leg := r.Routes[0].Legs[0]

	var seconds *float64
	switch {
	case leg.DurationInTraffic != nil && leg.DurationInTraffic.Value != nil:
		seconds = leg.DurationInTraffic.Value
	case leg.Duration != nil && leg.Duration.Value != nil:
		seconds = leg.Duration.Value
	default:
		return nil
	}
	if math.IsNaN(*seconds) || math.IsInf(*seconds, 0) || *seconds < 0 {
		return nil
	}

	m := int(math.Round(*seconds / 60))
	return &m
}
