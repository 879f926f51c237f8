package domain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/buoy-placefile/internal/geo"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

// Column positions in latest_obs.txt.
const (
	colStation = iota
	colLat
	colLon
	colYear
	colMonth
	colDay
	colHour
	colMinute
	colWindDir
	colWindSpeed
	colGust
	colWaveHeight
	colDominantPeriod
	colAveragePeriod
	colWaveDir
	colPressure
	colPressureTendency
	colAirTemp
	colWaterTemp
	colDewPoint
	colVisibility
	colTide

	conditionsColumns
)

// columnSpec binds one numeric feed column to the Observation field it fills.
type columnSpec struct {
	index  int
	name   string
	decode func(o *Observation, v float64)
}

// conditionsSchema lists every decoded numeric column. PTDY is not decoded.
var conditionsSchema = []columnSpec{
	{colLat, "LAT", func(o *Observation, v float64) { o.Lat = &v }},
	{colLon, "LON", func(o *Observation, v float64) { o.Lon = &v }},
	{colWindDir, "WDIR", direction(func(o *Observation) **Direction { return &o.WindDir })},
	{colWindSpeed, "WSPD", reading(units.WindSpeed, func(o *Observation) **units.Reading { return &o.Wind })},
	{colGust, "GST", reading(units.WindSpeed, func(o *Observation) **units.Reading { return &o.Gust })},
	{colWaveHeight, "WVHT", reading(units.WaveHeight, func(o *Observation) **units.Reading { return &o.WaveHeight })},
	{colDominantPeriod, "DPD", reading(units.Seconds, func(o *Observation) **units.Reading { return &o.DominantPeriod })},
	{colAveragePeriod, "APD", reading(units.Seconds, func(o *Observation) **units.Reading { return &o.AveragePeriod })},
	{colWaveDir, "MWD", direction(func(o *Observation) **Direction { return &o.WaveDir })},
	{colPressure, "PRES", reading(units.Pressure, func(o *Observation) **units.Reading { return &o.Pressure })},
	{colAirTemp, "ATMP", reading(units.Temperature, func(o *Observation) **units.Reading { return &o.AirTemp })},
	{colWaterTemp, "WTMP", reading(units.Temperature, func(o *Observation) **units.Reading { return &o.WaterTemp })},
	{colDewPoint, "DEWP", reading(units.Temperature, func(o *Observation) **units.Reading { return &o.DewPoint })},
	{colVisibility, "VIS", reading(units.NauticalMiles, func(o *Observation) **units.Reading { return &o.Visibility })},
	{colTide, "TIDE", reading(units.Tide, func(o *Observation) **units.Reading { return &o.Tide })},
}

func reading(convert func(float64) (units.Reading, bool), field func(*Observation) **units.Reading) func(*Observation, float64) {
	return func(o *Observation, v float64) {
		if r, ok := convert(v); ok {
			*field(o) = &r
		}
	}
}

func direction(field func(*Observation) **Direction) func(*Observation, float64) {
	return func(o *Observation, v float64) {
		*field(o) = &Direction{Degrees: v, Compass: geo.CompassLabel(v)}
	}
}

// RowError describes a conditions row that could not be decoded.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ConditionsReport summarizes a ParseConditions run.
type ConditionsReport struct {
	Rows    int // data rows seen (comments and blank lines excluded)
	Decoded int
	Dropped []RowError
}

// ParseConditions decodes latest_obs.txt into Observations. Comment lines
// start with '#'. Rows with the wrong column count or an invalid timestamp
// are dropped and reported; the returned error is reserved for read failures.
func ParseConditions(r io.Reader) (Observations, ConditionsReport, error) {
	obs := make(Observations)
	var report ConditionsReport

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		report.Rows++

		o, err := decodeRow(strings.Fields(text))
		if err != nil {
			report.Dropped = append(report.Dropped, RowError{Line: line, Reason: err.Error()})
			continue
		}
		obs["B-"+o.StationID] = o
	}
	if err := sc.Err(); err != nil {
		return nil, report, fmt.Errorf("read conditions: %w", err)
	}

	report.Decoded = len(obs)
	return obs, report, nil
}

func decodeRow(cols []string) (Observation, error) {
	if len(cols) != conditionsColumns {
		return Observation{}, fmt.Errorf("expected %d columns, got %d", conditionsColumns, len(cols))
	}

	ts, err := parseTimestamp(cols[colYear], cols[colMonth], cols[colDay], cols[colHour], cols[colMinute])
	if err != nil {
		return Observation{}, err
	}

	o := Observation{
		StationID: cols[colStation],
		UTC:       ts.Format(TimestampLayout),
	}
	for _, c := range conditionsSchema {
		if v, ok := units.ParseNumber(cols[c.index]); ok {
			c.decode(&o, v)
		}
	}
	return o, nil
}

// parseTimestamp assembles the five date/time columns into a UTC time,
// rejecting out-of-range components rather than normalizing them.
func parseTimestamp(year, month, day, hour, minute string) (time.Time, error) {
	var parts [5]int
	for i, s := range []string{year, month, day, hour, minute} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %s-%s-%s %s:%s", year, month, day, hour, minute)
		}
		parts[i] = n
	}

	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC)
	if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] ||
		t.Hour() != parts[3] || t.Minute() != parts[4] {
		return time.Time{}, fmt.Errorf("invalid timestamp %s-%s-%s %s:%s", year, month, day, hour, minute)
	}
	return t, nil
}
