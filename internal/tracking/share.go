package tracking

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ShareLiveLocation = "live_location"
	ShareSafeRoute    = "safe_route"
)

var (
	ErrUnknownShareType = errors.New("invalid message type")
	ErrTrackingURL      = errors.New("tracking url required")
)

// ShareRequest carries everything a share message can mention. Fields not
// used by the chosen type are ignored.
type ShareRequest struct {
	Type          string  `json:"type"`
	UserName      string  `json:"user_name"`
	TrackingURL   string  `json:"tracking_url"`
	DurationText  string  `json:"duration_text"`
	Address       string  `json:"address"`
	LocationName  string  `json:"location_name"`
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   int     `json:"duration_min"`
	SafetyScore   int     `json:"safety_score"`
	IncidentCount int     `json:"incident_count"`
}

// ShareMessage renders the text a user forwards to their contacts.
func ShareMessage(req ShareRequest, now time.Time) (string, error) {
	name := orDefault(req.UserName, defaultUserName)
	address := orDefault(req.Address, "Current location")

	switch req.Type {
	case ShareLiveLocation:
		if req.TrackingURL == "" {
			return "", ErrTrackingURL
		}
		lines := []string{
			"HerShield Live Location",
			"",
			name + " is sharing their live location with you",
			"",
			"Tracking Link:",
			req.TrackingURL,
			"",
			"Current Location:",
			address,
			"",
			"Duration: " + orDefault(req.DurationText, "30 minutes"),
			"",
			"Shared via HerShield Safety App",
		}
		return strings.Join(lines, "\n"), nil

	case ShareSafeRoute:
		risk := "No risk zones detected"
		if req.IncidentCount > 0 {
			risk = fmt.Sprintf("%d risk zones avoided", req.IncidentCount)
		}
		lines := []string{
			"HerShield Safe Route - " + name,
			"",
			fmt.Sprintf("Current Location (%s):", now.Format("03:04 PM")),
			address,
			"",
			"Destination:",
			orDefault(req.LocationName, "Destination"),
			"",
			fmt.Sprintf("Distance: %.2f km", req.DistanceKm),
			fmt.Sprintf("Estimated Time: %d min", req.DurationMin),
			fmt.Sprintf("Safety: %s %d/100", safetyLabel(req.SafetyScore), req.SafetyScore),
			"",
			risk,
			"",
			"Shared via HerShield App",
		}
		return strings.Join(lines, "\n"), nil
	}
	return "", ErrUnknownShareType
}

func safetyLabel(score int) string {
	switch {
	case score >= 80:
		return "Safe"
	case score >= 60:
		return "Moderate"
	default:
		return "Risky"
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
