package domain

import (
	"sort"
	"strings"

	"github.com/couchcryptid/buoy-placefile/internal/geo"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// Reserved keys in the flat catalog form.
const (
	LegendKey  = "LEGEND"
	UpdatedKey = "UPDATED"
)

const keyPrefix = "B-"

// Legend is the fixed order of fields in every catalog tuple.
var Legend = []string{
	"lat", "lon", "elev", "type", "name", "pgm", "owner",
	"met", "currents", "waterquality", "dart",
}

// Catalog maps station keys to pipe-joined attribute tuples.
type Catalog struct {
	Legend   []string          `json:"legend"`
	Updated  string            `json:"updated"`
	Stations map[string]string `json:"stations"`
}

// TypeCount is the number of catalog stations of one type.
type TypeCount struct {
	Type  string
	Count int
}

// StationKey returns the catalog key for a station id: "B-" plus the
// upper-cased id. Observation keys map onto catalog keys through it too.
func StationKey(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, keyPrefix)
	return keyPrefix + strings.ToUpper(id)
}

// BuildCatalog converts the decoded catalog feed into a Catalog, along with
// station counts per type sorted by type name. Stations without an id are
// skipped.
func BuildCatalog(raw RawCatalog) (Catalog, []TypeCount) {
	cat := Catalog{
		Legend:   append([]string(nil), Legend...),
		Updated:  strings.TrimSpace(raw.Created),
		Stations: make(map[string]string, len(raw.Stations)),
	}
	counts := make(map[string]int)

	fields := make([]string, len(Legend))
	for _, s := range raw.Stations {
		if strings.TrimSpace(s.ID) == "" {
			continue
		}
		for i, name := range Legend {
			fields[i] = tupleField(s.attr(name))
		}
		cat.Stations[StationKey(s.ID)] = strings.Join(fields, "|")

		if t := strings.TrimSpace(s.Type); t != "" {
			counts[t]++
		}
	}

	tally := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		tally = append(tally, TypeCount{Type: t, Count: n})
	}
	sort.Slice(tally, func(i, j int) bool { return tally[i].Type < tally[j].Type })

	return cat, tally
}

// tupleField trims a value and keeps the tuple delimiter out of it.
func tupleField(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), "|", "/")
}

// Entries returns the flat key/value form, including the LEGEND and UPDATED
// entries alongside the station tuples.
func (c Catalog) Entries() map[string]string {
	out := make(map[string]string, len(c.Stations)+2)
	out[LegendKey] = strings.Join(c.Legend, "|")
	out[UpdatedKey] = c.Updated
	for k, v := range c.Stations {
		out[k] = v
	}
	return out
}

// CatalogFromEntries rebuilds a Catalog from its flat key/value form. A
// missing LEGEND entry falls back to the standard legend.
func CatalogFromEntries(entries map[string]string) Catalog {
	cat := Catalog{
		Legend:   append([]string(nil), Legend...),
		Stations: make(map[string]string, len(entries)),
	}
	for k, v := range entries {
		switch k {
		case LegendKey:
			if v != "" {
				cat.Legend = strings.Split(v, "|")
			}
		case UpdatedKey:
			cat.Updated = v
		default:
			cat.Stations[k] = v
		}
	}
	return cat
}

// Len returns the number of stations in the catalog.
func (c Catalog) Len() int {
	return len(c.Stations)
}

// Lookup destructures the tuple stored under key through the catalog legend.
// It reports false if the key is absent or the tuple has no usable position.
func (c Catalog) Lookup(key string) (StationInfo, bool) {
	tuple, ok := c.Stations[key]
	if !ok {
		return StationInfo{}, false
	}
	values := strings.Split(tuple, "|")
	if len(values) != len(c.Legend) {
		return StationInfo{}, false
	}
	attrs := make(map[string]string, len(c.Legend))
	for i, name := range c.Legend {
		attrs[name] = values[i]
	}

	lat, latOK := units.ParseNumber(attrs["lat"])
	lon, lonOK := units.ParseNumber(attrs["lon"])
	if !latOK || !lonOK || !geo.ValidLatitude(lat) || !geo.ValidLongitude(lon) {
		return StationInfo{}, false
	}

	info := StationInfo{
		ID:              strings.TrimPrefix(key, keyPrefix),
		Lat:             lat,
		Lon:             lon,
		Type:            attrs["type"],
		Category:        ParseCategory(attrs["type"]),
		Name:            attrs["name"],
		Program:         attrs["pgm"],
		Owner:           attrs["owner"],
		HasMet:          flag(attrs["met"]),
		HasCurrents:     flag(attrs["currents"]),
		HasWaterQuality: flag(attrs["waterquality"]),
		HasDART:         flag(attrs["dart"]),
	}
	if elev, ok := units.ParseNumber(attrs["elev"]); ok {
		info.Elev = &elev
	}
	return info, true
}

func flag(v string) bool {
	return strings.EqualFold(v, "y")
}
