package match

import "math"

const earthRadiusKm = 6371.0

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Haversine returns the great-circle distance between two points in
// kilometers. Symmetric; zero for identical points.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lon1 := a.Longitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	lon2 := b.Longitude * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance handles optional coordinates: ok is false when either side is
// missing. The caller decides what an undetermined distance means (the
// batch ranker drops the pair, the fallback path scores it zero).
func Distance(a, b *Coordinates) (km float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	return Haversine(*a, *b), true
}
