package route

import (
	"math"

	"github.com/Rdeepthiacharya/HerShield/internal/risk"
	"github.com/Rdeepthiacharya/HerShield/internal/shared/geo"
)

const (
	ModeWalk    = "walk"
	ModeVehicle = "vehicle"
)

var travelSpeedsKmh = map[string]float64{
	ModeWalk:    4.5,
	ModeVehicle: 20.0,
}

// SpeedFor returns the assumed travel speed; unknown modes walk.
func SpeedFor(mode string) float64 {
	if v, ok := travelSpeedsKmh[mode]; ok {
		return v
	}
	return travelSpeedsKmh[ModeWalk]
}

const (
	maxSamplePoints = 5
	maxCoords       = 100
)

type Scorer struct {
	SafetyRadiusKm float64
}

// Score measures a finished path against the incidents around it. A path
// shorter than two points is measured as the direct start-end hop.
func (s Scorer) Score(start, end geo.Coordinate, path []geo.Coordinate, incidents []risk.Incident, mode string) Result {
	distance := geo.Distance(start, end)
	if len(path) >= 2 {
		distance = geo.PathLength(path)
	}

	hits := s.IncidentHits(path, incidents)
	coords := path
	if len(coords) > maxCoords {
		coords = coords[:maxCoords]
	}
	return Result{
		Coords:        append([]geo.Coordinate(nil), coords...),
		DistanceKm:    round2(distance),
		DurationMin:   DurationMinutes(distance, mode),
		SafetyScore:   SafetyScore(hits, distance),
		IncidentCount: hits,
	}
}

// IncidentHits counts distinct incidents (by coordinate) within the safety
// radius of the sampled path points.
func (s Scorer) IncidentHits(path []geo.Coordinate, incidents []risk.Incident) int {
	seen := map[geo.Coordinate]struct{}{}
	for _, point := range samplePoints(path) {
		for _, inc := range incidents {
			loc := inc.Location()
			if geo.Distance(point, loc) < s.SafetyRadiusKm {
				seen[loc] = struct{}{}
			}
		}
	}
	return len(seen)
}

func samplePoints(path []geo.Coordinate) []geo.Coordinate {
	if len(path) <= maxSamplePoints {
		return path
	}
	step := len(path) / maxSamplePoints
	if step < 1 {
		step = 1
	}
	out := make([]geo.Coordinate, 0, maxSamplePoints+1)
	for i := 0; i < len(path); i += step {
		out = append(out, path[i])
	}
	return out
}

// SafetyScore applies a tiered deduction for incident hits.
func SafetyScore(hits int, distanceKm float64) int {
	if distanceKm == 0 {
		return 100
	}
	score := 100
	switch {
	case hits >= 12:
		score -= 80
	case hits >= 8:
		score -= 60
	case hits >= 5:
		score -= 40
	case hits >= 3:
		score -= 20
	case hits >= 1:
		score -= 10
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func DurationMinutes(distanceKm float64, mode string) int {
	return int(distanceKm / SpeedFor(mode) * 60)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
