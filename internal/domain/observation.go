package domain

import (
	"sort"
	"time"

	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// TimestampLayout is the ISO-8601 form of Observation.UTC, e.g.
// "2023-09-23T16:00:00+00:00".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Direction is a bearing in degrees true with its compass label.
type Direction struct {
	Degrees float64 `json:"degrees"`
	Compass string  `json:"compass"`
}

// Observation is one station's decoded latest conditions. Every reading is
// optional; nil means the feed reported it missing.
type Observation struct {
	StationID string   `json:"station_id"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	UTC       string   `json:"utc"`

	WindDir *Direction     `json:"wind_dir,omitempty"`
	Wind    *units.Reading `json:"wind,omitempty"` // knots
	Gust    *units.Reading `json:"gust,omitempty"` // knots

	WaveHeight     *units.Reading `json:"wave_height,omitempty"` // feet
	DominantPeriod *units.Reading `json:"dominant_period,omitempty"`
	AveragePeriod  *units.Reading `json:"average_period,omitempty"`
	WaveDir        *Direction     `json:"wave_dir,omitempty"`

	Pressure   *units.Reading `json:"pressure,omitempty"` // hPa
	AirTemp    *units.Reading `json:"air_temp,omitempty"` // degF
	WaterTemp  *units.Reading `json:"water_temp,omitempty"`
	DewPoint   *units.Reading `json:"dew_point,omitempty"`
	Visibility *units.Reading `json:"visibility,omitempty"` // nautical miles
	Tide       *units.Reading `json:"tide,omitempty"`       // feet
}

// Position returns the feed-reported coordinates if both are present.
func (o Observation) Position() (lat, lon float64, ok bool) {
	if o.Lat == nil || o.Lon == nil {
		return 0, 0, false
	}
	return *o.Lat, *o.Lon, true
}

// ObservedAt parses the observation timestamp.
func (o Observation) ObservedAt() (time.Time, bool) {
	t, err := time.Parse(TimestampLayout, o.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Observations maps observation keys ("B-" + raw station id) to decoded rows.
type Observations map[string]Observation

// Keys returns the observation keys in ascending order.
func (o Observations) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
