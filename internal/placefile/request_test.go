package placefile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		lat     string
		lon     string
		version string
		want    Request
		wantMsg string
	}{
		{"valid", "37.0", "-122.0", "3.0", Request{Lat: 37, Lon: -122, Version: "3.0"}, ""},
		{"bounds inclusive", "-90", "180", "3.0", Request{Lat: -90, Lon: 180, Version: "3.0"}, ""},
		{"missing version", "37", "-122", "", Request{}, msgMissingParams},
		{"missing lat", "", "-122", "3.0", Request{}, msgMissingParams},
		{"non-numeric lat", "abc", "-122", "3.0", Request{}, msgBadLatitude},
		{"lat out of range", "95", "-122", "3.0", Request{}, msgLatitudeRange},
		{"non-numeric lon", "37", "west", "3.0", Request{}, msgBadLongitude},
		{"lon out of range", "37", "-200", "3.0", Request{}, msgLongitudeRange},
		{"lat checked before lon", "95", "-200", "3.0", Request{}, msgLatitudeRange},
		{"hex float rejected", "0x10", "-122", "3.0", Request{}, msgBadLatitude},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(tt.lat, tt.lon, tt.version)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.wantMsg, reqErr.Message)
		})
	}
}
