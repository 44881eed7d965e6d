package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aptscope/aptscope-backend/internal/platform/logger"
	"github.com/aptscope/aptscope-backend/internal/utils"
)

type Config struct {
	HTTPAddr        string
	CORSOrigins     []string
	DummyMarkers    []string
	RefreshSchedule string
	RefreshTimeout  time.Duration
	MolitServiceKey string
}

// fileConfig is the optional YAML overlay named by APTSCOPE_CONFIG. Env
// supplies every base value; the file only overrides what it sets.
type fileConfig struct {
	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	Engine      struct {
		DummyMarkers []string `yaml:"dummy_markers"`
	} `yaml:"engine"`
	Refresh struct {
		Schedule       string `yaml:"schedule"`
		TimeoutMinutes int    `yaml:"timeout_minutes"`
	} `yaml:"refresh"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPAddr:        utils.GetEnv("HTTP_ADDR", ":8080", log),
		RefreshSchedule: utils.GetEnv("ENGINE_REFRESH_SCHEDULE", "", log),
		RefreshTimeout:  time.Duration(utils.GetEnvAsInt("ENGINE_REFRESH_TIMEOUT_MINUTES", 10, log)) * time.Minute,
		MolitServiceKey: utils.GetEnv("MOLIT_SERVICE_KEY", "", log),
	}
	cfg.CORSOrigins = splitList(utils.GetEnv("CORS_ORIGINS", "", log))
	cfg.DummyMarkers = splitList(utils.GetEnv("ENGINE_DUMMY_MARKERS", "", log))

	path := strings.TrimSpace(os.Getenv("APTSCOPE_CONFIG"))
	if path == "" {
		return cfg
	}
	overlay, err := readConfigFile(path)
	if err != nil {
		log.Warn("Config file ignored", "path", path, "error", err)
		return cfg
	}
	applyOverlay(&cfg, overlay)
	log.Info("Config file applied", "path", path)
	return cfg
}

func readConfigFile(path string) (fileConfig, error) {
	var fc fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, fmt.Errorf("parse yaml: %w", err)
	}
	return fc, nil
}

func applyOverlay(cfg *Config, fc fileConfig) {
	if v := strings.TrimSpace(fc.HTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if len(fc.Engine.DummyMarkers) > 0 {
		cfg.DummyMarkers = fc.Engine.DummyMarkers
	}
	if v := strings.TrimSpace(fc.Refresh.Schedule); v != "" {
		cfg.RefreshSchedule = v
	}
	if fc.Refresh.TimeoutMinutes > 0 {
		cfg.RefreshTimeout = time.Duration(fc.Refresh.TimeoutMinutes) * time.Minute
	}
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
