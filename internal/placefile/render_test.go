package placefile

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/units"
)

var renderTime = time.Date(2023, 9, 23, 16, 20, 0, 0, time.UTC)

const (
	sanFranciscoTuple = "37.755|-122.839|0|buoy|SAN FRANCISCO|NDBC Meteorological/Ocean|National Data Buoy Center|y|n|n|n"
	shastaTuple       = "41.342|-122|1070|fixed|MOUNT SHASTA|IOOS Partners|Somebody|y|n|n|n"
)

func newTestRenderer() *Renderer {
	return NewRenderer(Options{
		Generator: "buoy-placefile test",
		Title:     "Buoy Obs",
		Clock:     clockwork.NewFakeClockAt(renderTime),
	})
}

func ptr(f float64) *float64 { return &f }

func mustReading(t *testing.T, conv func(float64) (units.Reading, bool), v float64) *units.Reading {
	t.Helper()
	r, ok := conv(v)
	require.True(t, ok)
	return &r
}

func sanFranciscoObs(t *testing.T) domain.Observation {
	return domain.Observation{
		StationID:  "46026",
		Lat:        ptr(37.755),
		Lon:        ptr(-122.839),
		UTC:        "2023-09-23T16:00:00+00:00",
		WindDir:    &domain.Direction{Degrees: 180, Compass: "S"},
		Wind:       mustReading(t, units.WindSpeed, 5),
		AirTemp:    mustReading(t, units.Temperature, 15),
		Visibility: mustReading(t, units.NauticalMiles, 10),
	}
}

func testSnapshot(stations map[string]string, obs domain.Observations) domain.Snapshot {
	cat := domain.Catalog{
		Legend:   append([]string(nil), domain.Legend...),
		Updated:  "2023-09-23T16:15:00UTC",
		Stations: stations,
	}
	return domain.NewSnapshot(renderTime, cat, obs)
}

func TestRender_Header(t *testing.T) {
	r := newTestRenderer()
	out, sum, err := r.RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, testSnapshot(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, Summary{}, sum)

	want := strings.Join([]string{
		"; placefile with conditions generated by buoy-placefile test",
		"; Generated on Sat, 23 Sep 2023 16:20:00 +0000",
		";",
		"Title: Buoy Obs - Sat, 23 Sep 2023 16:20:00 +0000",
		"Refresh: 5",
		"Color: 255 255 255",
		"Font: 1, 12, 1, Arial",
		"IconFile: 1, 19, 43, 2, 43, windbarbs-kt-white.png",
		"IconFile: 2, 17, 17, 8, 8, buoy-icons.png",
		"Threshold: 999",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, string(out))
}

func TestRender_StationInRange(t *testing.T) {
	obs := sanFranciscoObs(t)
	snap := testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple},
		domain.Observations{"B-46026": obs},
	)

	out, sum, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Equal(t, Summary{Observations: 1, Rendered: 1}, sum)

	popup := strings.Join([]string{
		"BUOY 46026 SAN FRANCISCO",
		"   (37.755,-122.839)",
		strings.Repeat("-", 58),
		"Time:  Saturday, Sep 23 (16:00Z)",
		"Tair:  59.0F (15.0C)",
		"Wind:  S " + obs.Wind.Text,
		"Vsby:  10 nm",
		"",
		"Pgm:   NDBC Meteorological/Ocean",
		"Owner: National Data Buoy Center",
		strings.Repeat("-", 58),
	}, `\n`)
	block := strings.Join([]string{
		"; generate 46026 SAN FRANCISCO at 37.755,-122.839 at 70 miles NW",
		"Object: 37.755,-122.839",
		"Threshold: 999",
		"Icon: 0,0,180,1,2",
		"Text: -17, 13, 1, 59",
		"Color: 24 189 7",
		"Text: 17, -13, 1, 10",
		"Color: 255 255 255",
		`Icon: 0,0,000,2,2,"` + popup + `"`,
		"End:",
		"",
		"",
	}, "\n")
	assert.True(t, strings.HasSuffix(string(out), "Threshold: 999\n\n"+block), "got:\n%s", out)
}

func TestRender_StationOutOfRange(t *testing.T) {
	snap := testSnapshot(
		map[string]string{"B-SHST1": shastaTuple},
		domain.Observations{"B-SHST1": {StationID: "SHST1", Lat: ptr(41.342), Lon: ptr(-122)}},
	)

	out, sum, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.OutOfRange)
	assert.Zero(t, sum.Rendered)
	assert.NotContains(t, string(out), "Object:")
}

func TestRender_StationWithoutCatalogEntry(t *testing.T) {
	snap := testSnapshot(
		map[string]string{},
		domain.Observations{"B-46026": sanFranciscoObs(t)},
	)

	out, sum, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.NoStationInfo)
	assert.NotContains(t, string(out), "Object:")
}

func TestRender_ObservationWithoutPosition(t *testing.T) {
	obs := sanFranciscoObs(t)
	obs.Lat = nil
	snap := testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple},
		domain.Observations{"B-46026": obs},
	)

	_, sum, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Equal(t, Summary{Observations: 1, NoPosition: 1}, sum)
}

func TestRender_LowerCaseObservationKeyMatchesCatalog(t *testing.T) {
	obs := sanFranciscoObs(t)
	obs.StationID = "sfxc1"
	snap := testSnapshot(
		map[string]string{"B-SFXC1": strings.Replace(sanFranciscoTuple, "SAN FRANCISCO", "SF HARBOR", 1)},
		domain.Observations{"B-sfxc1": obs},
	)

	out, sum, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rendered)
	assert.Contains(t, string(out), "; generate SFXC1 SF HARBOR at")
}

func TestRender_StationsInKeyOrder(t *testing.T) {
	a := sanFranciscoObs(t)
	b := sanFranciscoObs(t)
	b.StationID = "46012"
	b.Lat, b.Lon = ptr(37.361), ptr(-122.881)
	snap := testSnapshot(
		map[string]string{
			"B-46026": sanFranciscoTuple,
			"B-46012": "37.361|-122.881|0|buoy|HALF MOON BAY|NDBC|NDBC|y|n|n|n",
		},
		domain.Observations{"B-46026": a, "B-46012": b},
	)

	out, _, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	first := strings.Index(string(out), "; generate 46012")
	second := strings.Index(string(out), "; generate 46026")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestRender_Deterministic(t *testing.T) {
	snap := testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple, "B-SHST1": shastaTuple},
		domain.Observations{
			"B-46026": sanFranciscoObs(t),
			"B-SHST1": {StationID: "SHST1", Lat: ptr(41.342), Lon: ptr(-122)},
		},
	)
	req := Request{Lat: 37, Lon: -122, Version: "3.0"}
	r := newTestRenderer()

	first, _, err := r.RenderPlacefile(req, snap)
	require.NoError(t, err)
	second, _, err := r.RenderPlacefile(req, snap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_NoBarbWithoutWind(t *testing.T) {
	obs := sanFranciscoObs(t)
	obs.Wind = nil
	snap := testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple},
		domain.Observations{"B-46026": obs},
	)

	out, _, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Icon: 0,0,180,1,")
	assert.NotContains(t, string(out), "Wind:")
}

func TestRender_WaterTempBlock(t *testing.T) {
	obs := sanFranciscoObs(t)
	obs.Visibility = nil
	obs.WaterTemp = mustReading(t, units.Temperature, 16.9)
	snap := testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple},
		domain.Observations{"B-46026": obs},
	)

	out, _, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Color: 0 148 255\nText: -17, -13, 1, 62\nColor: 255 255 255\n")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRender_WriteError(t *testing.T) {
	_, err := newTestRenderer().Render(failingWriter{}, Request{Lat: 37, Lon: -122}, testSnapshot(nil, nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write placefile")
}

func TestRender_WritesSingleBuffer(t *testing.T) {
	var buf bytes.Buffer
	sum, err := newTestRenderer().Render(&buf, Request{Lat: 37, Lon: -122}, testSnapshot(
		map[string]string{"B-46026": sanFranciscoTuple},
		domain.Observations{"B-46026": sanFranciscoObs(t)},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rendered)
	assert.Equal(t, 1, strings.Count(buf.String(), "End:"))
}

func TestWindBarb(t *testing.T) {
	tests := []struct {
		knots float64
		want  int
	}{
		{0, 0},
		{2, 0},
		{3, 1},
		{7, 1},
		{10, 2},
		{12, 2},
		{13, 3},
		{52, 10},
		{53, 11},
		{77, 15},
		{87, 17},
		{150, 17},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, windBarb(tt.knots), "knots=%v", tt.knots)
	}
}

func TestVisibilityStyle(t *testing.T) {
	tests := []struct {
		name  string
		vis   float64
		color string
		x     int
	}{
		{"zero", 0, colorVisMagenta, 17},
		{"under one", 0.5, colorVisMagenta, 24},
		{"one", 1, colorVisMagenta, 24},
		{"between one and three", 1.6, colorVisRed, 17},
		{"three", 3, colorVisYellow, 17},
		{"five", 5, colorVisYellow, 17},
		{"over five", 6, colorVisGreen, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color, x := visibilityStyle(tt.vis)
			assert.Equal(t, tt.color, color)
			assert.Equal(t, tt.x, x)
		})
	}
}

func TestDisplayVisibility(t *testing.T) {
	assert.InDelta(t, 1.6, displayVisibility(1.6), 1e-9)
	assert.InDelta(t, 2.0, displayVisibility(2.9), 1e-9)
	assert.InDelta(t, 10.0, displayVisibility(10), 1e-9)
}

func TestRender_VisibilityThreeToFiveIsYellow(t *testing.T) {
	for _, v := range []float64{3, 5, 5.9} {
		obs := sanFranciscoObs(t)
		obs.Visibility = mustReading(t, units.NauticalMiles, v)
		snap := testSnapshot(
			map[string]string{"B-46026": sanFranciscoTuple},
			domain.Observations{"B-46026": obs},
		)
		out, _, err := newTestRenderer().RenderPlacefile(Request{Lat: 37, Lon: -122, Version: "3.0"}, snap)
		require.NoError(t, err)
		assert.Contains(t, string(out), "Color: 255 255 0\nText: 17, -13, 1, ", "vis=%v", v)
	}
}

func TestStationIcon(t *testing.T) {
	assert.Equal(t, 2, stationIcon(domain.CategoryBuoy))
	assert.Equal(t, 2, stationIcon(domain.CategoryFixed))
	assert.Equal(t, 2, stationIcon(domain.CategoryDART))
	assert.Equal(t, 4, stationIcon(domain.CategoryOilRig))
	assert.Equal(t, 4, stationIcon(domain.CategoryUnknown))
}
