package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcourt/clutchtime/go/internal/conditions"
	"github.com/mcourt/clutchtime/go/internal/orchestrator"
)

// Config is the service's YAML configuration. Durations are carried as
// integer minutes so the file stays editable by hand; Heuristics and
// RetryPolicy convert them on the way in.
type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Scheduler struct {
		DailyHourUTC int `yaml:"daily_hour_utc"`

		Heuristics struct {
			PossessionPoints  int `yaml:"possession_points"`
			PossessionSeconds int `yaml:"possession_seconds"`
			StartGraceMinutes int `yaml:"start_grace_minutes"`
			HalftimeMinutes   int `yaml:"halftime_minutes"`
		} `yaml:"heuristics"`

		Retry struct {
			Tiers []struct {
				MaxFails     int `yaml:"max_fails"`
				DelayMinutes int `yaml:"delay_minutes"`
			} `yaml:"tiers"`
			FallbackMinutes int `yaml:"fallback_minutes"`
			Budget          int `yaml:"budget"`
		} `yaml:"retry"`
	} `yaml:"scheduler"`

	Alerts struct {
		NATSSubject string `yaml:"nats_subject"`
	} `yaml:"alerts"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Scheduler.DailyHourUTC = 17
	cfg.Alerts.NATSSubject = "clutchtime.alarms"
	return &cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Heuristics converts the configured estimator knobs, falling back to
// the defaults for anything unset.
func (c *Config) Heuristics() conditions.Heuristics {
	h := conditions.DefaultHeuristics()
	s := c.Scheduler.Heuristics
	if s.PossessionPoints > 0 {
		h.PossessionPoints = s.PossessionPoints
	}
	if s.PossessionSeconds > 0 {
		h.PossessionSeconds = s.PossessionSeconds
	}
	if s.StartGraceMinutes > 0 {
		h.StartGrace = time.Duration(s.StartGraceMinutes) * time.Minute
	}
	if s.HalftimeMinutes > 0 {
		h.HalftimeDuration = time.Duration(s.HalftimeMinutes) * time.Minute
	}
	return h
}

// RetryPolicy converts the configured backoff tiers, falling back to the
// defaults when no tiers are set.
func (c *Config) RetryPolicy() orchestrator.RetryPolicy {
	r := c.Scheduler.Retry
	if len(r.Tiers) == 0 {
		return orchestrator.DefaultRetryPolicy()
	}

	policy := orchestrator.RetryPolicy{
		Fallback: time.Duration(r.FallbackMinutes) * time.Minute,
		Budget:   r.Budget,
	}
	for _, t := range r.Tiers {
		policy.Tiers = append(policy.Tiers, orchestrator.BackoffTier{
			MaxFails: t.MaxFails,
			Delay:    time.Duration(t.DelayMinutes) * time.Minute,
		})
	}
	return policy
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
