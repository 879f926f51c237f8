// Package units converts raw metric sensor readings from the NDBC conditions
// feed into display values and the formatted strings shown in popups.
//
// Converters never fail. A non-finite input yields ok == false so callers can
// leave the field absent instead of carrying a zero.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	knotsPerMeterPerSecond = 1.94384449
	kmhPerKnot             = 1.85200
	mphPerKnot             = 1.15077945
	feetPerMeter           = 3.28084
	hPaPerInHg             = 33.86388158
)

// Reading is a display-ready value: the primary numeric value in display
// units plus the formatted text used in popups.
type Reading struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

// ParseNumber reports whether token is a plain decimal number and returns it.
// The feed's missing-value sentinel "MM" and anything else non-numeric
// (including NaN, Inf and hex floats) is rejected.
func ParseNumber(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, "xXpP_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || !finite(v) {
		return 0, false
	}
	return v, true
}

// Temperature converts degrees Celsius to Fahrenheit, e.g. "75.9F (24.4C)".
// Both units are rounded to one decimal independently.
func Temperature(celsius float64) (Reading, bool) {
	if !finite(celsius) {
		return Reading{}, false
	}
	f := round(1.8*celsius+32.0, 1)
	c := round(celsius, 1)
	return Reading{Value: f, Text: fmt.Sprintf("%.1fF (%.1fC)", f, c)}, true
}

// WindSpeed converts meters per second to knots, e.g. "4 mph (7 km/h, 4 kt)".
// km/h and mph derive from the unrounded knot value.
func WindSpeed(metersPerSecond float64) (Reading, bool) {
	if !finite(metersPerSecond) {
		return Reading{}, false
	}
	kts := metersPerSecond * knotsPerMeterPerSecond
	kmh := round(kts*kmhPerKnot, 0)
	mph := round(kts*mphPerKnot, 0)
	rkts := round(kts, 0)
	return Reading{
		Value: rkts,
		Text:  fmt.Sprintf("%.0f mph (%.0f km/h, %.0f kt)", mph, kmh, rkts),
	}, true
}

// WaveHeight converts meters to feet, e.g. "3.6 ft (1.1 m)".
func WaveHeight(meters float64) (Reading, bool) {
	if !finite(meters) {
		return Reading{}, false
	}
	ft := round(meters*feetPerMeter, 1)
	m := round(meters, 1)
	return Reading{Value: ft, Text: fmt.Sprintf("%.1f ft (%.1f m)", ft, m)}, true
}

// Pressure formats hectopascals with the inHg equivalent, e.g.
// "29.90 inHg (1012.4 hPa)". The value stays in hPa.
func Pressure(hPa float64) (Reading, bool) {
	if !finite(hPa) {
		return Reading{}, false
	}
	inHg := round(hPa/hPaPerInHg, 2)
	h := round(hPa, 1)
	return Reading{Value: h, Text: fmt.Sprintf("%.2f inHg (%.1f hPa)", inHg, h)}, true
}

// Tide formats a water level in feet with its metric equivalent,
// e.g. "0.28ft (0.1 m)".
func Tide(feet float64) (Reading, bool) {
	if !finite(feet) {
		return Reading{}, false
	}
	m := round(feet/feetPerMeter, 1)
	return Reading{Value: feet, Text: fmt.Sprintf("%sft (%.1f m)", Plain(feet), m)}, true
}

// Seconds formats a wave period, e.g. "13 sec".
func Seconds(v float64) (Reading, bool) {
	return suffixed(v, " sec")
}

// NauticalMiles formats a visibility, e.g. "1.6 nm".
func NauticalMiles(v float64) (Reading, bool) {
	return suffixed(v, " nm")
}

// Plain formats v with the fewest digits that represent it exactly.
func Plain(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func suffixed(v float64, suffix string) (Reading, bool) {
	if !finite(v) {
		return Reading{}, false
	}
	return Reading{Value: v, Text: Plain(v) + suffix}, true
}

// round rounds half away from zero to the given number of decimals and
// folds negative zero into zero so "-0.0" never reaches the output.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
