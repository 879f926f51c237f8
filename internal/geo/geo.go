// Package geo computes great-circle distance and bearing between two points
// and labels bearings on a 16-point compass.
package geo

import (
	"math"
)

const (
	statuteMilesPerNauticalMile = 1.1515
	kilometersPerMile           = 1.609344
	compassBinWidth             = 22.5
)

// UnknownDirection is returned for directions that cannot be labeled.
const UnknownDirection = "---"

var compassLabels = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Course is the great-circle distance and initial bearing from one point to another.
type Course struct {
	Miles      float64 // rounded to the nearest statute mile
	ExactMiles float64
	Kilometers float64 // rounded to the nearest kilometer
	Bearing    float64 // degrees in [0,360)
	Compass    string
}

// GreatCircle returns the course from (lat1, lon1) to (lat2, lon2), all in
// decimal degrees. Distance uses the spherical law of cosines.
func GreatCircle(lat1, lon1, lat2, lon2 float64) Course {
	phi1, phi2 := radians(lat1), radians(lat2)
	dLambda := radians(lon2 - lon1)

	cosArc := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	// Identical or antipodal points can overshoot [-1,1] by an ulp.
	cosArc = math.Max(-1, math.Min(1, cosArc))
	miles := degrees(math.Acos(cosArc)) * 60 * statuteMilesPerNauticalMile

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	bearing := math.Mod(degrees(math.Atan2(y, x))+360, 360)

	return Course{
		Miles:      math.Round(miles),
		ExactMiles: miles,
		Kilometers: math.Round(miles * kilometersPerMile),
		Bearing:    bearing,
		Compass:    CompassLabel(bearing),
	}
}

// CompassLabel maps degrees to one of 16 compass points using 22.5° bins
// offset by 11°. Non-finite input yields UnknownDirection.
func CompassLabel(deg float64) string {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return UnknownDirection
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Mod((deg+11)/compassBinWidth, 16))
	return compassLabels[idx]
}

// ValidLatitude reports whether lat is within [-90, 90].
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lon is within [-180, 180].
func ValidLongitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
