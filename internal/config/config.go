package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Gemini struct {
		APIKey        string `yaml:"apiKey"`
		Model         string `yaml:"model"`
		Timeout       string `yaml:"timeout"`
		MaxConcurrent int    `yaml:"maxConcurrent"`
	} `yaml:"gemini"`
	Leaderboard struct {
		Limit    int    `yaml:"limit"`
		CacheTTL string `yaml:"cacheTTL"`
	} `yaml:"leaderboard"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
}

// Load reads YAML config from path and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// applyEnv lets deployment secrets and endpoints override the file.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		c.Gemini.APIKey = v
	}
	if v, ok := lookup("GEMINI_MODEL"); ok && v != "" {
		c.Gemini.Model = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Postgres.URL = v
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		c.Redis.Addr = v
	}
	if v, ok := lookup("LEADERBOARD_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Leaderboard.Limit = n
		}
	}
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
