package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Fingerprints struct {
		// TTL bounds how long the in-process index reuses a scan; "0s" disables reuse.
		TTL string `yaml:"ttl"`
	} `yaml:"fingerprints"`
	Blob struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"blob"`
	PDF struct {
		Bin string `yaml:"bin"`
	} `yaml:"pdf"`
	Admin struct {
		UIDs   []string `yaml:"uids"`
		Emails []string `yaml:"emails"`
	} `yaml:"admin"`
	// CLIIdentity is recorded as the author of schedules imported from the CLI.
	CLIIdentity struct {
		UID   string `yaml:"uid"`
		Email string `yaml:"email"`
	} `yaml:"cli_identity"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
