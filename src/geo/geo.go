package geo

import "math"

const earthRadiusMeters = 6371e3

// metersPerDegreeLat is the flat-earth conversion used for bounding boxes.
// Good enough at city scale, off near the poles.
const metersPerDegreeLat = 111000.0

// Haversine returns the great-circle distance in meters between two
// WGS84 coordinates.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// BoundingBox returns the lat/lng ranges covering radiusMeters around a point.
// The longitude range widens with latitude.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, maxLat, minLng, maxLng float64) {
	latRange := radiusMeters / metersPerDegreeLat
	lngRange := radiusMeters / (metersPerDegreeLat * math.Cos(lat*math.Pi/180))
	return lat - latRange, lat + latRange, lng - lngRange, lng + lngRange
}
