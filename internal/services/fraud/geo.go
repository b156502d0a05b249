package fraud

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// haversineKm computes the great-circle distance between two points in km.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// implausibleTravel reports whether covering distance in elapsed time would
// require exceeding maxSpeedKmh. Zero or negative elapsed time with any
// meaningful distance is implausible by definition.
func implausibleTravel(distanceKm float64, elapsed time.Duration, maxSpeedKmh float64) bool {
	if distanceKm < 1 {
		return false
	}
	hours := elapsed.Hours()
	if hours <= 0 {
		return true
	}
	return distanceKm/hours > maxSpeedKmh
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
