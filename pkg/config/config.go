// Package config loads and validates the engine configuration from a YAML
// file with environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/communeos/bridgenet/pkg/archive"
	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/impact"
	"github.com/communeos/bridgenet/pkg/recommend"
	"github.com/communeos/bridgenet/pkg/scheduler"
	"github.com/communeos/bridgenet/pkg/validation"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
}

// SourceConfig holds platform data source settings.
type SourceConfig struct {
	DatabaseURL string `yaml:"database_url"`

	// EventsAddr is the nanomsg address of the platform change-event
	// publisher. Empty disables the event subscriber.
	EventsAddr string `yaml:"events_addr"`
}

// Config is the full engine configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Source    SourceConfig     `yaml:"source"`
	Detect    detect.Config    `yaml:"detect"`
	Impact    impact.Config    `yaml:"impact"`
	Recommend recommend.Config `yaml:"recommend"`
	Scheduler scheduler.Config `yaml:"scheduler"`
	Archive   archive.Config   `yaml:"archive"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
			RateLimitPerSec: 50,
			RateLimitBurst:  100,
		},
		Detect:    detect.DefaultConfig(),
		Impact:    impact.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Scheduler: scheduler.DefaultConfig(),
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides. An empty path returns defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides deployment-specific values. Secrets come from the
// environment, never the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Source.DatabaseURL = v
	}
	if v := os.Getenv("EVENTS_ADDR"); v != "" {
		cfg.Source.EventsAddr = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
}

// Validate checks the configuration, reporting every problem at once.
func (c Config) Validate() error {
	cv := validation.NewConfigValidator("Config")

	cv.RangeInt("server.port", c.Server.Port, 1, 65535).
		PositiveFloat("server.rate_limit_per_sec", c.Server.RateLimitPerSec).
		Positive("server.rate_limit_burst", c.Server.RateLimitBurst)

	cv.PositiveFloat("detect.geo_radius_km", c.Detect.GeoRadiusKm).
		Fraction("detect.thematic_base", c.Detect.ThematicBase).
		Fraction("detect.thematic_tag_bonus", c.Detect.ThematicTagBonus).
		Fraction("detect.mentorship_strength", c.Detect.MentorshipStrength).
		Fraction("detect.mentor_setup_min", c.Detect.MentorSetupMin).
		Fraction("detect.mentee_setup_max", c.Detect.MenteeSetupMax)

	cv.Fraction("impact.reach_strength_floor", c.Impact.ReachStrengthFloor).
		Positive("impact.reach_max_hops", c.Impact.ReachMaxHops).
		Fraction("impact.hub_centrality_min", c.Impact.HubCentralityMin).
		Positive("impact.connector_types_min", c.Impact.ConnectorTypesMin)

	w := c.Recommend.Weights
	cv.Fraction("recommend.weights.geographic", w.Geographic).
		Fraction("recommend.weights.thematic", w.Thematic).
		Fraction("recommend.weights.size", w.Size).
		Fraction("recommend.weights.mutual", w.Mutual).
		SumsToOne("recommend.weights", w.Geographic, w.Thematic, w.Size, w.Mutual).
		PositiveFloat("recommend.geo_radius_km", c.Recommend.GeoRadiusKm).
		Positive("recommend.default_top_k", c.Recommend.DefaultTopK)

	cv.Positive("scheduler.workers", c.Scheduler.Workers).
		Positive("scheduler.commit_retries", c.Scheduler.CommitRetries).
		MinDuration("scheduler.budget", c.Scheduler.Budget, time.Second)

	cv.When(c.Archive.Enabled, func(v *validation.ConfigValidator) {
		v.Required("archive.bucket", c.Archive.Bucket).
			Required("archive.region", c.Archive.Region)
	})

	return cv.Error()
}
