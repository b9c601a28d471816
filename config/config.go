// Package config carries the runtime configuration: environment-driven
// settings plus the YAML catalogue of countries to scrape.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents the environment-driven settings. Every field can
// be overridden through a POLLGRID_* variable.
type Config struct {
	DataDir     string `envconfig:"DATA_DIR" default:"data"`
	DBPath      string `envconfig:"DB_PATH" default:"pollgrid.db"`
	SourcesPath string `envconfig:"SOURCES" default:"sources.yaml"`
	BaseURL     string `envconfig:"BASE_URL" default:"https://en.wikipedia.org"`

	UserAgent      string        `envconfig:"USER_AGENT"`
	AcceptLanguage string        `envconfig:"ACCEPT_LANGUAGE" default:"en"`
	HTTPTimeout    time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	HTTPRetries    int           `envconfig:"HTTP_RETRIES" default:"3"`
	FetchDelay     time.Duration `envconfig:"FETCH_DELAY" default:"3s"`

	Categories       []string `envconfig:"CATEGORIES" default:"far-right,national-conservatism"`
	CutoffYear       int      `envconfig:"CUTOFF_YEAR" default:"2010"`
	MinNeighbors     int      `envconfig:"MIN_NEIGHBORS" default:"2"`
	NeighborYears    int      `envconfig:"NEIGHBOR_YEARS" default:"1"`
	AnomalyThreshold float64  `envconfig:"ANOMALY_THRESHOLD" default:"10"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("pollgrid", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
