package geo

import "math"

const earthRadiusKm = 6371.0088

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Distance is HaversineKm over coordinates.
func Distance(a, b Coordinate) float64 {
	return HaversineKm(a.Lat, a.Lng, b.Lat, b.Lng)
}

// PathLength sums consecutive segment distances.
func PathLength(path []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Around returns the box spanning a and b, widened by bufferDeg on each side.
func Around(a, b Coordinate, bufferDeg float64) BoundingBox {
	return BoundingBox{
		MinLat: math.Min(a.Lat, b.Lat) - bufferDeg,
		MinLng: math.Min(a.Lng, b.Lng) - bufferDeg,
		MaxLat: math.Max(a.Lat, b.Lat) + bufferDeg,
		MaxLng: math.Max(a.Lng, b.Lng) + bufferDeg,
	}
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}
