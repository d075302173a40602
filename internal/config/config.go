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
	Quiz struct {
		Dir       string `yaml:"dir"`
		MediaPath string `yaml:"media_path"`
		TTL       string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		DefaultTimeLimit  int `yaml:"default_time_limit"`
		MinScore          int `yaml:"min_score"`
		MaxScore          int `yaml:"max_score"`
		MaxNicknameLength int `yaml:"max_nickname_length"`
	} `yaml:"game"`
	Host struct {
		Secret string `yaml:"secret"`
	} `yaml:"host"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields the defaults:
// the server must come up with zero configuration.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Quiz.Dir = "quizzes"
	cfg.Quiz.MediaPath = "/media"
	cfg.Game.DefaultTimeLimit = 15
	cfg.Game.MinScore = 20
	cfg.Game.MaxScore = 100
	cfg.Game.MaxNicknameLength = 24
	return cfg
}

// TTLDuration parses a duration string or returns the fallback if empty
// or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
