// Command render builds a placefile offline from local copies of the NDBC
// feeds, without a running service or snapshot database. It uses the same
// parsing and rendering code as the service, so its output matches what
// GET /placefile would serve for the same feeds.
//
// Usage:
//
//	go run ./cmd/render \
//	  -catalog testdata/activestations.xml \
//	  -conditions testdata/latest_obs.txt \
//	  -lat 37.0 -lon -122.0 > buoys.txt
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
	"github.com/couchcryptid/buoy-placefile/internal/observability"
	"github.com/couchcryptid/buoy-placefile/internal/placefile"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	catalogPath := flag.String("catalog", "", "path to activestations.xml")
	conditionsPath := flag.String("conditions", "", "path to latest_obs.txt")
	lat := flag.String("lat", "", "viewer latitude")
	lon := flag.String("lon", "", "viewer longitude")
	version := flag.String("version", "offline", "client version token")
	tz := flag.String("tz", "UTC", "time zone for popup dates")
	out := flag.String("out", "", "output file (default stdout)")
	utf8 := flag.Bool("utf8", false, "write UTF-8 instead of ISO-8859-1")
	verbose := flag.Bool("v", false, "log skipped stations to stderr")
	flag.Parse()

	if *catalogPath == "" || *conditionsPath == "" {
		flag.Usage()
		return fmt.Errorf("-catalog and -conditions are required")
	}

	req, err := placefile.ParseRequest(*lat, *lon, *version)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger := observability.NewLogger(level, "tint")

	snap, err := loadSnapshot(*catalogPath, *conditionsPath, logger)
	if err != nil {
		return err
	}

	r := placefile.NewRenderer(placefile.Options{
		Generator: "buoy-placefile render",
		Location:  loc,
		Clock:     clockwork.NewRealClock(),
		Logger:    logger,
	})
	body, sum, err := r.RenderPlacefile(req, snap)
	if err != nil {
		return err
	}
	if !*utf8 {
		if body, err = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder()).Bytes(body); err != nil {
			return fmt.Errorf("encode placefile: %w", err)
		}
	}

	if *out == "" {
		_, err = os.Stdout.Write(body)
	} else {
		err = os.WriteFile(*out, body, 0o644)
	}
	if err != nil {
		return fmt.Errorf("write placefile: %w", err)
	}

	logger.Info("placefile rendered",
		"observations", sum.Observations,
		"rendered", sum.Rendered,
		"out_of_range", sum.OutOfRange,
		"no_position", sum.NoPosition,
		"no_station_info", sum.NoStationInfo,
	)
	return nil
}

func loadSnapshot(catalogPath, conditionsPath string, logger *slog.Logger) (domain.Snapshot, error) {
	catalogXML, err := os.ReadFile(catalogPath)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read catalog: %w", err)
	}
	raw, err := domain.ParseCatalogXML(catalogXML)
	if err != nil {
		return domain.Snapshot{}, err
	}
	cat, _ := domain.BuildCatalog(raw)

	conditions, err := os.ReadFile(conditionsPath)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read conditions: %w", err)
	}
	obs, report, err := domain.ParseConditions(bytes.NewReader(conditions))
	if err != nil {
		return domain.Snapshot{}, err
	}
	for _, rowErr := range report.Dropped {
		logger.Warn("conditions row dropped", "line", rowErr.Line, "reason", rowErr.Reason)
	}

	return domain.NewSnapshot(time.Now(), cat, obs), nil
}
