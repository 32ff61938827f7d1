package route

import "github.com/Rdeepthiacharya/HerShield/internal/shared/geo"

// Point is a request coordinate. Absent fields stay nil so an empty object
// is told apart from (0, 0).
type Point struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func At(c geo.Coordinate) *Point {
	return &Point{Lat: &c.Lat, Lng: &c.Lng}
}

// Coordinate reports false when either field is missing or out of range.
func (p *Point) Coordinate() (geo.Coordinate, bool) {
	if p == nil || p.Lat == nil || p.Lng == nil {
		return geo.Coordinate{}, false
	}
	c := geo.Coordinate{Lat: *p.Lat, Lng: *p.Lng}
	return c, c.Valid()
}

type Request struct {
	Start        *Point `json:"start"`
	End          *Point `json:"end"`
	Mode         string `json:"mode"`
	Alternatives int    `json:"alternatives"`
}

type Result struct {
	Coords        []geo.Coordinate `json:"coords"`
	DistanceKm    float64          `json:"distance_km"`
	DurationMin   int              `json:"duration_min"`
	SafetyScore   int              `json:"safety_score"`
	IncidentCount int              `json:"incident_count"`
}

type Response struct {
	Route        Result   `json:"route"`
	Alternatives []Result `json:"alternatives,omitempty"`
}
