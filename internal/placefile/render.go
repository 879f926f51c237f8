// Package placefile renders buoy observations as a GRLevelX placefile.
//
// A placefile is a line-oriented text format. The renderer writes a fixed
// header and then one Object block per station within RadiusMiles of the
// viewer:
//
//	Object: 37.755,-122.839
//	Threshold: 999
//	Icon: 0,0,130,1,1
//	Text: -17, 13, 1, 58
//	Color: 0 148 255
//	Text: -17, -13, 1, 62
//	Color: 255 255 255
//	Color: 247 11 15
//	Text: 17, -13, 1, 1.6
//	Color: 255 255 255
//	Icon: 0,0,000,2,2,"BUOY 46026 ..."
//	End:
//
// Directive spelling, field order and delimiters are parsed textually by the
// client and must not change.
package placefile

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/geo"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

const (
	defaultTitle      = "NDBC Buoy Observations"
	defaultDateFormat = "Monday, Jan 02"
	defaultRefresh    = 5

	colorDefault    = "255 255 255"
	colorWaterTemp  = "0 148 255"
	colorVisMagenta = "250 0 248"
	colorVisRed     = "247 11 15"
	colorVisYellow  = "255 255 0"
	colorVisGreen   = "24 189 7"

	iconStationFixed = 2
	iconStationOther = 4
)

// barbThresholds are the upper knot limits of each wind-barb atlas frame.
// Band 0 is calm and has no barb.
var barbThresholds = [...]float64{2, 7, 12, 17, 22, 27, 32, 37, 42, 47, 52, 57, 62, 67, 72, 77, 82, 87}

// Options configures a Renderer.
type Options struct {
	Generator      string // named in the header comment
	Title          string
	RefreshMinutes int
	Location       *time.Location // zone for the popup calendar date
	DateFormat     string         // Go layout for the popup calendar date
	Clock          clockwork.Clock
	Logger         *slog.Logger
}

// Renderer turns a snapshot into placefile text.
type Renderer struct {
	opts Options
}

// Summary counts what happened to each observation during a render.
type Summary struct {
	Observations  int
	Rendered      int
	NoPosition    int
	OutOfRange    int
	NoStationInfo int
}

// NewRenderer creates a Renderer, filling unset options with defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	if opts.RefreshMinutes <= 0 {
		opts.RefreshMinutes = defaultRefresh
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DateFormat == "" {
		opts.DateFormat = defaultDateFormat
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{opts: opts}
}

// RenderPlacefile renders req against snap and returns the placefile text.
func (r *Renderer) RenderPlacefile(req Request, snap domain.Snapshot) ([]byte, Summary, error) {
	var buf bytes.Buffer
	sum, err := r.Render(&buf, req, snap)
	if err != nil {
		return nil, sum, err
	}
	return buf.Bytes(), sum, nil
}

// Render writes the header and one block per eligible station to w, in
// ascending observation key order.
func (r *Renderer) Render(w io.Writer, req Request, snap domain.Snapshot) (Summary, error) {
	var sum Summary
	var buf bytes.Buffer

	r.writeHeader(&buf)

	for _, key := range snap.Observations.Keys() {
		obs := snap.Observations[key]
		sum.Observations++

		lat, lon, ok := obs.Position()
		if !ok {
			sum.NoPosition++
			continue
		}
		course := geo.GreatCircle(req.Lat, req.Lon, lat, lon)
		if course.Miles > RadiusMiles {
			sum.OutOfRange++
			continue
		}

		info, ok := snap.Catalog.Lookup(domain.StationKey(key))
		if !ok {
			r.opts.Logger.Debug("no station info, skipping", "station", key)
			sum.NoStationInfo++
			continue
		}

		r.writeStation(&buf, info, obs, course)
		sum.Rendered++
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return sum, fmt.Errorf("write placefile: %w", err)
	}
	return sum, nil
}

func (r *Renderer) writeHeader(buf *bytes.Buffer) {
	now := r.opts.Clock.Now().UTC().Format(time.RFC1123Z)
	fmt.Fprintf(buf, "; placefile with conditions generated by %s\n", r.opts.Generator)
	fmt.Fprintf(buf, "; Generated on %s\n", now)
	buf.WriteString(";\n")
	fmt.Fprintf(buf, "Title: %s - %s\n", r.opts.Title, now)
	fmt.Fprintf(buf, "Refresh: %d\n", r.opts.RefreshMinutes)
	fmt.Fprintf(buf, "Color: %s\n", colorDefault)
	buf.WriteString("Font: 1, 12, 1, Arial\n")
	buf.WriteString("IconFile: 1, 19, 43, 2, 43, windbarbs-kt-white.png\n")
	buf.WriteString("IconFile: 2, 17, 17, 8, 8, buoy-icons.png\n")
	buf.WriteString("Threshold: 999\n\n")
}

func (r *Renderer) writeStation(buf *bytes.Buffer, info domain.StationInfo, obs domain.Observation, course geo.Course) {
	lat, lon := units.Plain(info.Lat), units.Plain(info.Lon)

	fmt.Fprintf(buf, "; generate %s %s at %s,%s at %.0f miles %s\n",
		info.ID, info.Name, lat, lon, course.Miles, course.Compass)
	fmt.Fprintf(buf, "Object: %s,%s\n", lat, lon)
	buf.WriteString("Threshold: 999\n")

	if obs.WindDir != nil && obs.Wind != nil {
		if barb := windBarb(obs.Wind.Value); barb > 0 {
			fmt.Fprintf(buf, "Icon: 0,0,%s,1,%d\n", units.Plain(obs.WindDir.Degrees), barb)
		}
	}

	if obs.AirTemp != nil {
		fmt.Fprintf(buf, "Text: -17, 13, 1, %s\n", wholeDegrees(obs.AirTemp.Value))
	}

	if obs.WaterTemp != nil {
		fmt.Fprintf(buf, "Color: %s\n", colorWaterTemp)
		fmt.Fprintf(buf, "Text: -17, -13, 1, %s\n", wholeDegrees(obs.WaterTemp.Value))
		fmt.Fprintf(buf, "Color: %s\n", colorDefault)
	}

	if obs.Visibility != nil {
		vis := displayVisibility(obs.Visibility.Value)
		color, x := visibilityStyle(vis)
		fmt.Fprintf(buf, "Color: %s\n", color)
		fmt.Fprintf(buf, "Text: %d, -13, 1, %s\n", x, units.Plain(vis))
		fmt.Fprintf(buf, "Color: %s\n", colorDefault)
	}

	fmt.Fprintf(buf, "Icon: 0,0,000,2,%d,\"%s\"\n", stationIcon(info.Category), r.popup(info, obs))
	buf.WriteString("End:\n\n")
}

// windBarb returns the wind-barb atlas frame for a speed in knots: the first
// band whose limit the speed does not exceed, clamped to the top band.
func windBarb(knots float64) int {
	for i, limit := range barbThresholds {
		if knots <= limit {
			return i
		}
	}
	return len(barbThresholds) - 1
}

// stationIcon returns the station-type atlas frame for a category.
func stationIcon(c domain.Category) int {
	switch c {
	case domain.CategoryFixed, domain.CategoryBuoy, domain.CategoryDART:
		return iconStationFixed
	case domain.CategoryUSV, domain.CategoryTAO, domain.CategoryOilRig, domain.CategoryOther:
		return iconStationOther
	default:
		return iconStationOther
	}
}

// displayVisibility truncates visibilities of 2 nm and more to whole miles.
func displayVisibility(nm float64) float64 {
	if nm >= 2 {
		return math.Trunc(nm)
	}
	return nm
}

// visibilityStyle returns the text color and x offset for a display visibility.
func visibilityStyle(vis float64) (string, int) {
	switch {
	case vis <= 0:
		return colorVisMagenta, 17
	case vis <= 1:
		return colorVisMagenta, 24
	case vis < 3:
		return colorVisRed, 17
	case vis <= 5:
		return colorVisYellow, 17
	default:
		return colorVisGreen, 17
	}
}

func wholeDegrees(f float64) string {
	return strconv.Itoa(int(math.Round(f)))
}
