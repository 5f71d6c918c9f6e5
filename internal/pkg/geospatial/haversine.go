package geospatial

import (
	"math"

	"github.com/midwaymeet/midwaymeet/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// Distance is Haversine over domain coordinates.
func Distance(a, b domain.Coordinate) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Midpoint returns the great-circle midpoint between two points, not the
// planar lat/lng average (which drifts badly across long east-west spans).
func Midpoint(p1, p2 domain.Coordinate) domain.Coordinate {
	lat1, lng1 := toRad(p1.Lat), toRad(p1.Lng)
	lat2 := toRad(p2.Lat)
	dLng := toRad(p2.Lng - p1.Lng)

	bx := math.Cos(lat2) * math.Cos(dLng)
	by := math.Cos(lat2) * math.Sin(dLng)

	midLat := math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	midLng := lng1 + math.Atan2(by, math.Cos(lat1)+bx)

	return domain.Coordinate{Lat: toDeg(midLat), Lng: normalizeLng(toDeg(midLng))}
}

// Bearing returns the initial bearing in radians from p1 towards p2.
func Bearing(p1, p2 domain.Coordinate) float64 {
	lat1, lat2 := toRad(p1.Lat), toRad(p2.Lat)
	dLng := toRad(p2.Lng - p1.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	return math.Atan2(y, x)
}

// Offset displaces a point by distanceM along the given bearing, using a
// planar approximation that is accurate at the sub-kilometer distances the
// lateral sampling uses.
func Offset(p domain.Coordinate, bearingRad, distanceM float64) domain.Coordinate {
	const earthRadiusM = earthRadiusKm * 1000

	lat := toRad(p.Lat)
	dLat := distanceM * math.Cos(bearingRad) / earthRadiusM
	dLng := distanceM * math.Sin(bearingRad) / (earthRadiusM * math.Cos(lat))

	return domain.Coordinate{
		Lat: p.Lat + toDeg(dLat),
		Lng: p.Lng + toDeg(dLng),
	}
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

func normalizeLng(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
