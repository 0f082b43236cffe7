// Package geo provides the distance and degree conversions used by the grid.
// Geodesy is deliberately simple: haversine distances on a sphere and a flat-earth
// meters-to-degrees conversion evaluated at the latitude of interest.
package geo

import (
	"math"

	"github.com/kass/go-geo-dominance/pkg/models"
)

const (
	// EarthRadiusKm is the sphere radius used by Distance
	EarthRadiusKm = 6371.0
	// MetersPerDegree is the length of one degree of latitude
	MetersPerDegree = 111_320.0

	boxPadding = 1e-9 // degrees
)

// Distance calculates the Haversine distance between two points in kilometers
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Destination returns the point reached from origin after travelling distanceKm
// along the great circle with the given initial bearing (degrees clockwise from north)
func Destination(origin models.Location, bearingDeg, distanceKm float64) models.Location {
	lat1 := origin.Lat * math.Pi / 180
	lon1 := origin.Lon * math.Pi / 180
	theta := bearingDeg * math.Pi / 180
	delta := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)
	return models.Location{Lat: lat2 * 180 / math.Pi, Lon: lon2 * 180 / math.Pi}
}

// MetersToLat converts a north-south distance to degrees of latitude
func MetersToLat(meters float64) float64 {
	return meters / MetersPerDegree
}

// MetersToLon converts an east-west distance to degrees of longitude at lat
func MetersToLon(meters, lat float64) float64 {
	return meters / (MetersPerDegree * math.Cos(lat*math.Pi/180))
}

// RadiusBox returns a box that contains every point whose Distance from center
// is at most radiusKm. The box may be larger than the circle, never smaller.
func RadiusBox(center models.Location, radiusKm float64) models.BoundingBox {
	angular := radiusKm / EarthRadiusKm
	dLat := angular * 180 / math.Pi

	minLat := center.Lat - dLat - boxPadding
	maxLat := center.Lat + dLat + boxPadding

	dLon := 180.0
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	sinAngular := math.Sin(angular)
	// a cap reaching a pole spans every meridian
	if angular < math.Pi/2 && minLat > -90 && maxLat < 90 && sinAngular < cosLat {
		dLon = math.Asin(sinAngular/cosLat)*180/math.Pi + boxPadding
	}

	return models.BoundingBox{
		BottomLeft: models.Location{Lat: math.Max(minLat, -90), Lon: center.Lon - dLon},
		TopRight:   models.Location{Lat: math.Min(maxLat, 90), Lon: center.Lon + dLon},
	}
}

// CenterToBoundingBox returns the square of side sizeKm centered on lat/lon
func CenterToBoundingBox(lat, lon, sizeKm float64) models.BoundingBox {
	halfMeters := sizeKm * 1000 / 2
	dLat := MetersToLat(halfMeters)
	dLon := MetersToLon(halfMeters, lat)
	return models.BoundingBox{
		BottomLeft: models.Location{Lat: lat - dLat, Lon: lon - dLon},
		TopRight:   models.Location{Lat: lat + dLat, Lon: lon + dLon},
	}
}
