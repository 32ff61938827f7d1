// Package risk turns incident reports into a time- and distance-decayed
// severity field that the route planner can sample at any coordinate.
package risk

import (
	"time"

	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

const day = 24 * time.Hour

// DefaultSeverity is used when a report carries no severity.
const DefaultSeverity = 5.0

// Incident is a read-only snapshot of a reported safety event.
type Incident struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Severity   float64   `json:"severity"`
	ReportedAt time.Time `json:"reported_at"`
}

func (i Incident) Location() geo.Coordinate {
	return geo.Coordinate{Lat: i.Lat, Lng: i.Lng}
}

// TimeDecay steps down with report age and never reaches zero.
func TimeDecay(age time.Duration) float64 {
	switch {
	case age <= 7*day:
		return 1.0
	case age <= 30*day:
		return 0.7
	case age <= 90*day:
		return 0.4
	case age <= 180*day:
		return 0.2
	default:
		return 0.1
	}
}

// DistanceDecay is 1/(1+d) inside the radius and 0 at or beyond it.
func DistanceDecay(distanceKm, radiusKm float64) float64 {
	if distanceKm >= radiusKm || distanceKm < 0 {
		return 0
	}
	return 1 / (1 + distanceKm)
}

type Model struct {
	RadiusKm float64
	Now      func() time.Time
}

func NewModel(radiusKm float64) Model {
	return Model{RadiusKm: radiusKm, Now: time.Now}
}

func (m Model) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Contribution is severity * time decay * distance decay for one incident.
func (m Model) Contribution(point geo.Coordinate, inc Incident) float64 {
	d := geo.Distance(point, inc.Location())
	dd := DistanceDecay(d, m.RadiusKm)
	if dd == 0 {
		return 0
	}
	return severityOf(inc) * TimeDecay(m.now().Sub(inc.ReportedAt)) * dd
}

// Aggregate sums contributions of every incident in range of point.
func (m Model) Aggregate(point geo.Coordinate, incidents []Incident) float64 {
	total := 0.0
	for _, inc := range incidents {
		total += m.Contribution(point, inc)
	}
	return total
}

// Weighted folds the time decay into each incident's severity so hot loops
// only pay for the distance term. The returned incidents are stamped with now,
// which makes their own TimeDecay exactly 1.
func Weighted(incidents []Incident, now time.Time) []Incident {
	out := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		w := inc
		w.Severity = severityOf(inc) * TimeDecay(now.Sub(inc.ReportedAt))
		w.ReportedAt = now
		out = append(out, w)
	}
	return out
}

// FilterBox keeps incidents inside box.
func FilterBox(incidents []Incident, box geo.BoundingBox) []Incident {
	out := make([]Incident, 0, len(incidents))
	for _, inc := range incidents {
		if box.Contains(inc.Location()) {
			out = append(out, inc)
		}
	}
	return out
}

func severityOf(inc Incident) float64 {
	if inc.Severity <= 0 {
		return DefaultSeverity
	}
	return inc.Severity
}
