package app

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func TestLoadConfigFromEnv(t *testing.T) {
	log := newTestLogger(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "https://a.kr, https://b.kr ,")
	t.Setenv("ENGINE_DUMMY_MARKERS", "더미,테스트")
	t.Setenv("ENGINE_REFRESH_SCHEDULE", "@every 6h")
	t.Setenv("ENGINE_REFRESH_TIMEOUT_MINUTES", "5")
	t.Setenv("APTSCOPE_CONFIG", "")

	cfg := LoadConfig(log)

	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr: got=%q", cfg.HTTPAddr)
	}
	if want := []string{"https://a.kr", "https://b.kr"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("cors origins: got=%v want=%v", cfg.CORSOrigins, want)
	}
	if want := []string{"더미", "테스트"}; !reflect.DeepEqual(cfg.DummyMarkers, want) {
		t.Fatalf("dummy markers: got=%v want=%v", cfg.DummyMarkers, want)
	}
	if cfg.RefreshSchedule != "@every 6h" {
		t.Fatalf("refresh schedule: got=%q", cfg.RefreshSchedule)
	}
	if cfg.RefreshTimeout != 5*time.Minute {
		t.Fatalf("refresh timeout: got=%v", cfg.RefreshTimeout)
	}
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	log := newTestLogger(t)
	path := filepath.Join(t.TempDir(), "aptscope.yaml")
	raw := `http_addr: ":8088"
cors_origins:
  - https://aptscope.kr
engine:
  dummy_markers:
    - 더미
refresh:
  schedule: "@every 1h"
  timeout_minutes: 3
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("ENGINE_DUMMY_MARKERS", "")
	t.Setenv("ENGINE_REFRESH_SCHEDULE", "")
	t.Setenv("ENGINE_REFRESH_TIMEOUT_MINUTES", "")
	t.Setenv("APTSCOPE_CONFIG", path)

	cfg := LoadConfig(log)

	if cfg.HTTPAddr != ":8088" {
		t.Fatalf("file should override env addr: got=%q", cfg.HTTPAddr)
	}
	if want := []string{"https://aptscope.kr"}; !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("cors origins: got=%v want=%v", cfg.CORSOrigins, want)
	}
	if want := []string{"더미"}; !reflect.DeepEqual(cfg.DummyMarkers, want) {
		t.Fatalf("dummy markers: got=%v want=%v", cfg.DummyMarkers, want)
	}
	if cfg.RefreshSchedule != "@every 1h" {
		t.Fatalf("refresh schedule: got=%q", cfg.RefreshSchedule)
	}
	if cfg.RefreshTimeout != 3*time.Minute {
		t.Fatalf("refresh timeout: got=%v", cfg.RefreshTimeout)
	}
}

func TestLoadConfigBadYAMLKeepsEnv(t *testing.T) {
	log := newTestLogger(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("http_addr: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("APTSCOPE_CONFIG", path)

	cfg := LoadConfig(log)
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("broken file should leave env config: got=%q", cfg.HTTPAddr)
	}
}

func TestSplitList(t *testing.T) {
	cases := map[string]struct {
		in   string
		want []string
	}{
		"empty":       {"", nil},
		"spaces_only": {"  ", nil},
		"single":      {"a", []string{"a"}},
		"trimmed":     {" a , b ,, c ", []string{"a", "b", "c"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := splitList(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("splitList(%q): got=%v want=%v", tc.in, got, tc.want)
			}
		})
	}
}
