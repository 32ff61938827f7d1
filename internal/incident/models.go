package incident

import "time"

// Report is a user submitted incident report.
type Report struct {
	ID           string    `json:"id"`
	UserID       *string   `json:"user_id,omitempty"`
	Lat          float64   `json:"latitude"`
	Lng          float64   `json:"longitude"`
	Severity     int       `json:"severity"`
	IncidentType string    `json:"incident_type"`
	Description  string    `json:"description"`
	PlaceName    string    `json:"place_name"`
	LocationType string    `json:"location_type"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	RelativeTime string    `json:"relative_time,omitempty"`
}
