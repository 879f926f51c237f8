package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
	_ "time/tzdata" // zone database for PLACEFILE_TIMEZONE in minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Default NDBC feed locations.
const (
	DefaultCatalogURL    = "https://www.ndbc.noaa.gov/activestations.xml"
	DefaultConditionsURL = "https://www.ndbc.noaa.gov/data/latest_obs/latest_obs.txt"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NDBC feed retrieval.
	CatalogURL      string
	ConditionsURL   string
	FetchTimeout    time.Duration
	RefreshInterval time.Duration

	SnapshotDBPath string

	// Placefile presentation.
	Location        *time.Location
	DateFormat      string
	RefreshMinutes  int
	RenderCacheSize int

	// Optional observation publishing. Empty brokers disables it.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("NDBC_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	tz := sharedcfg.EnvOrDefault("PLACEFILE_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid PLACEFILE_TIMEZONE: %w", err)
	}

	refreshMinutes, err := parsePositiveInt("PLACEFILE_REFRESH_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("RENDER_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogURL:      sharedcfg.EnvOrDefault("NDBC_CATALOG_URL", DefaultCatalogURL),
		ConditionsURL:   sharedcfg.EnvOrDefault("NDBC_CONDITIONS_URL", DefaultConditionsURL),
		FetchTimeout:    fetchTimeout,
		RefreshInterval: refreshInterval,

		SnapshotDBPath: sharedcfg.EnvOrDefault("SNAPSHOT_DB_PATH", "buoys.db"),

		Location:        loc,
		DateFormat:      sharedcfg.EnvOrDefault("PLACEFILE_DATE_FORMAT", "Monday, Jan 02"),
		RefreshMinutes:  refreshMinutes,
		RenderCacheSize: cacheSize,

		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "buoy-observations"),
	}

	if err := validateURL("NDBC_CATALOG_URL", cfg.CatalogURL); err != nil {
		return nil, err
	}
	if err := validateURL("NDBC_CONDITIONS_URL", cfg.ConditionsURL); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PublishEnabled reports whether observations are written to Kafka.
func (c *Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key + ": must be a positive duration")
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := sharedcfg.EnvOrDefault(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + key + ": must be a positive integer")
	}
	return n, nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("invalid " + key + ": must be an http(s) URL")
	}
	return nil
}
