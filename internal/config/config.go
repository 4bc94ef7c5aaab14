// Package config resolves runtime settings from defaults, an optional YAML
// file and TASKNOTES_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TASKNOTES_"

type RuntimeConfig struct {
	BaseURL         string        `yaml:"api_url"`
	AuthToken       string        `yaml:"auth_token"`
	PollInterval    time.Duration `yaml:"-"`
	MaxRecording    time.Duration `yaml:"-"`
	Location        string        `yaml:"location"`
	LocationCommand string        `yaml:"location_command"`
	GeocodeURL      string        `yaml:"geocode_url"`
	FFmpegPath      string        `yaml:"ffmpeg"`
	LogFile         string        `yaml:"log_file"`
	LogLevel        string        `yaml:"log_level"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		BaseURL:      "http://localhost:5000",
		PollInterval: 10 * time.Second,
		MaxRecording: 5 * time.Minute,
		GeocodeURL:   "https://api.bigdatacloud.net/data/reverse-geocode-client",
		FFmpegPath:   "ffmpeg",
		LogLevel:     "info",
	}
}

// fileConfig mirrors RuntimeConfig with durations in whole seconds.
type fileConfig struct {
	RuntimeConfig       `yaml:",inline"`
	PollSeconds         int `yaml:"poll_seconds"`
	MaxRecordingSeconds int `yaml:"max_recording_seconds"`
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadFile overlays the YAML file at path onto base. An empty path is a no-op.
func LoadFile(base RuntimeConfig, path string) (RuntimeConfig, error) {
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	fc := fileConfig{RuntimeConfig: base}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg := fc.RuntimeConfig
	if fc.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(fc.PollSeconds) * time.Second
	}
	if fc.MaxRecordingSeconds > 0 {
		cfg.MaxRecording = time.Duration(fc.MaxRecordingSeconds) * time.Second
	}
	return cfg, nil
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("API_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := getEnvString("AUTH_TOKEN"); ok {
		cfg.AuthToken = v
	}
	if v, ok := getEnvInt("POLL_SECONDS"); ok && v > 0 {
		cfg.PollInterval = time.Duration(v) * time.Second
	}
	if v, ok := getEnvInt("MAX_RECORDING_SECONDS"); ok && v > 0 {
		cfg.MaxRecording = time.Duration(v) * time.Second
	}
	if v, ok := getEnvString("LOCATION"); ok {
		cfg.Location = v
	}
	if v, ok := getEnvString("LOCATION_COMMAND"); ok {
		cfg.LocationCommand = v
	}
	if v, ok := getEnvString("GEOCODE_URL"); ok {
		cfg.GeocodeURL = v
	}
	if v, ok := getEnvString("FFMPEG"); ok {
		cfg.FFmpegPath = v
	}
	if v, ok := getEnvString("LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	return cfg
}

// Load applies the file and environment layers on top of the defaults.
func Load(path string) (RuntimeConfig, error) {
	cfg, err := LoadFile(DefaultRuntimeConfig(), path)
	if err != nil {
		return cfg, err
	}
	return RuntimeConfigFromEnv(cfg), nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
