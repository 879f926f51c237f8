package placefile

import (
	"github.com/couchcryptid/buoy-placefile/internal/geo"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// RadiusMiles is how far from the query point stations are rendered.
const RadiusMiles = 250

// Request is one placefile render: the viewer's position and the client's
// version token.
type Request struct {
	Lat     float64
	Lon     float64
	Version string
}

// RequestError is a render-request validation failure. Its message is the
// single diagnostic line returned to the client.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string { return e.Message }

// Diagnostic lines for invalid requests.
const (
	msgMissingParams  = "This placefile only runs via a GRLevelX placefile manager (lat, lon and version are required)."
	msgBadLatitude    = "Bad latitude spec."
	msgLatitudeRange  = "Latitude outside range -90.0 to +90.0"
	msgBadLongitude   = "Bad longitude spec."
	msgLongitudeRange = "Longitude outside range -180.0 to +180.0"
)

// ParseRequest validates raw query parameters. The version token is opaque
// and only checked for presence.
func ParseRequest(lat, lon, version string) (Request, error) {
	if lat == "" || lon == "" || version == "" {
		return Request{}, &RequestError{Message: msgMissingParams}
	}

	la, ok := units.ParseNumber(lat)
	if !ok {
		return Request{}, &RequestError{Message: msgBadLatitude}
	}
	if !geo.ValidLatitude(la) {
		return Request{}, &RequestError{Message: msgLatitudeRange}
	}

	lo, ok := units.ParseNumber(lon)
	if !ok {
		return Request{}, &RequestError{Message: msgBadLongitude}
	}
	if !geo.ValidLongitude(lo) {
		return Request{}, &RequestError{Message: msgLongitudeRange}
	}

	return Request{Lat: la, Lon: lo, Version: version}, nil
}
