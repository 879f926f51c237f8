package placefile

import (
	"strings"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/geo"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// popupNewline is the escaped line break GRLevelX expands inside a label.
const popupNewline = `\n`

// minPlausiblePressure guards against sentinel pressures encoded as small values.
const minPlausiblePressure = 500

var popupRule = strings.Repeat("-", 58)

// popup assembles the hover text for one station.
func (r *Renderer) popup(info domain.StationInfo, obs domain.Observation) string {
	lines := make([]string, 0, 24)
	add := func(label, value string) {
		lines = append(lines, label+value)
	}

	lines = append(lines, strings.ToUpper(info.Type)+" "+info.ID+" "+info.Name)
	lines = append(lines, "   ("+coordinates(info, obs)+")")
	lines = append(lines, popupRule)

	if t, ok := obs.ObservedAt(); ok {
		add("Time:  ", t.In(r.opts.Location).Format(r.opts.DateFormat)+" ("+t.Format("15:04")+"Z)")
	}
	if obs.AirTemp != nil {
		add("Tair:  ", obs.AirTemp.Text)
	}
	if obs.DewPoint != nil {
		add("Tdew:  ", obs.DewPoint.Text)
	}
	if obs.WaterTemp != nil {
		add("Twtr:  ", obs.WaterTemp.Text)
	}
	if obs.Wind != nil {
		dir := geo.UnknownDirection
		if obs.WindDir != nil {
			dir = obs.WindDir.Compass
		}
		add("Wind:  ", dir+" "+obs.Wind.Text)
		if obs.Gust != nil {
			add("       gust ", obs.Gust.Text)
		}
	}
	if obs.Pressure != nil && obs.Pressure.Value > minPlausiblePressure {
		add("Pres:  ", obs.Pressure.Text)
	}
	if obs.Visibility != nil {
		add("Vsby:  ", obs.Visibility.Text)
	}
	if obs.WaveHeight != nil {
		add("Waves: ", obs.WaveHeight.Text)
	}
	if obs.DominantPeriod != nil {
		add("DPD:   ", obs.DominantPeriod.Text)
	}
	if obs.AveragePeriod != nil {
		add("APD:   ", obs.AveragePeriod.Text)
	}
	if obs.WaveDir != nil {
		add("WvDir: ", obs.WaveDir.Compass)
	}

	if info.Program != "" || info.Owner != "" {
		lines = append(lines, "")
	}
	if info.Program != "" {
		add("Pgm:   ", info.Program)
	}
	if info.Owner != "" {
		add("Owner: ", info.Owner)
	}
	lines = append(lines, popupRule)

	return strings.ReplaceAll(strings.Join(lines, popupNewline), `"`, "'")
}

// coordinates prefers the feed-reported position and appends a non-zero
// catalog elevation.
func coordinates(info domain.StationInfo, obs domain.Observation) string {
	lat, lon, ok := obs.Position()
	if !ok {
		lat, lon = info.Lat, info.Lon
	}
	s := units.Plain(lat) + "," + units.Plain(lon)
	if info.Elev != nil && *info.Elev != 0 {
		s += " @ " + units.Plain(*info.Elev) + " ft"
	}
	return s
}
