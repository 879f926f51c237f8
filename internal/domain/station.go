package domain

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// Category is the kind of platform a station is.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryFixed
	CategoryBuoy
	CategoryUSV
	CategoryDART
	CategoryTAO
	CategoryOilRig
	CategoryOther
)

// ParseCategory maps the catalog's type attribute to a Category.
// Unrecognized values map to CategoryUnknown.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return CategoryFixed
	case "buoy":
		return CategoryBuoy
	case "usv":
		return CategoryUSV
	case "dart":
		return CategoryDART
	case "tao":
		return CategoryTAO
	case "oilrig":
		return CategoryOilRig
	case "other":
		return CategoryOther
	default:
		return CategoryUnknown
	}
}

func (c Category) String() string {
	switch c {
	case CategoryFixed:
		return "fixed"
	case CategoryBuoy:
		return "buoy"
	case CategoryUSV:
		return "usv"
	case CategoryDART:
		return "dart"
	case CategoryTAO:
		return "tao"
	case CategoryOilRig:
		return "oilrig"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// StationInfo is the typed form of one catalog entry.
type StationInfo struct {
	ID       string
	Lat      float64
	Lon      float64
	Elev     *float64 // feet
	Type     string   // raw type attribute, kept for labels
	Category Category
	Name     string
	Program  string
	Owner    string

	HasMet          bool
	HasCurrents     bool
	HasWaterQuality bool
	HasDART         bool
}

// RawCatalog is the decoded activestations.xml document.
type RawCatalog struct {
	XMLName  xml.Name     `xml:"stations"`
	Created  string       `xml:"created,attr"`
	Count    string       `xml:"count,attr"`
	Stations []RawStation `xml:"station"`
}

// RawStation holds one <station> element's attributes verbatim.
type RawStation struct {
	ID           string `xml:"id,attr"`
	Lat          string `xml:"lat,attr"`
	Lon          string `xml:"lon,attr"`
	Elev         string `xml:"elev,attr"`
	Name         string `xml:"name,attr"`
	Owner        string `xml:"owner,attr"`
	Pgm          string `xml:"pgm,attr"`
	Type         string `xml:"type,attr"`
	Met          string `xml:"met,attr"`
	Currents     string `xml:"currents,attr"`
	WaterQuality string `xml:"waterquality,attr"`
	Dart         string `xml:"dart,attr"`
}

// attr returns the attribute named by a Legend field.
func (s RawStation) attr(name string) string {
	switch name {
	case "lat":
		return s.Lat
	case "lon":
		return s.Lon
	case "elev":
		return s.Elev
	case "type":
		return s.Type
	case "name":
		return s.Name
	case "pgm":
		return s.Pgm
	case "owner":
		return s.Owner
	case "met":
		return s.Met
	case "currents":
		return s.Currents
	case "waterquality":
		return s.WaterQuality
	case "dart":
		return s.Dart
	default:
		return ""
	}
}

// ParseCatalogXML decodes the station catalog feed. Non-UTF-8 documents are
// decoded through the charset named in their XML declaration.
func ParseCatalogXML(data []byte) (RawCatalog, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var cat RawCatalog
	if err := dec.Decode(&cat); err != nil {
		return RawCatalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return cat, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q: unsupported", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
