package tracking

import (
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

// MaxHistory is the number of samples a session keeps; older ones are evicted.
const MaxHistory = 100

type LocationSample struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Accuracy  float64   `json:"accuracy"`
}

func (l LocationSample) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: l.Lat, Lng: l.Lng}
}

type Session struct {
	ID              string           `json:"session_id"`
	OwnerUserID     string           `json:"user_id"`
	DisplayName     string           `json:"user_name"`
	Locations       []LocationSample `json:"locations"`
	CreatedAt       time.Time        `json:"created_at"`
	LastUpdated     time.Time        `json:"last_updated"`
	ExpiresAt       *time.Time       `json:"expires_at"`
	IsActive        bool             `json:"is_active"`
	TotalUpdates    int              `json:"total_updates"`
	DurationMinutes int              `json:"duration_minutes"`
}

// Latest returns the most recent sample, or nil for an empty history.
func (s Session) Latest() *LocationSample {
	if len(s.Locations) == 0 {
		return nil
	}
	latest := s.Locations[len(s.Locations)-1]
	return &latest
}

func (s Session) expiredAt(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// clone copies every reference field so callers never share store memory.
func (s *Session) clone() Session {
	out := *s
	out.Locations = append([]LocationSample(nil), s.Locations...)
	if s.ExpiresAt != nil {
		expires := *s.ExpiresAt
		out.ExpiresAt = &expires
	}
	return out
}

type CreateInput struct {
	OwnerUserID     string
	DisplayName     string
	Location        geo.Coordinate
	DurationMinutes int
}

// LatestLocation is the polling view of a session.
type LatestLocation struct {
	SessionID      string          `json:"session_id"`
	LatestLocation *LocationSample `json:"latest_location"`
	TotalUpdates   int             `json:"total_updates"`
	IsActive       bool            `json:"is_active"`
}
