package handlers

import (
	"testing"

	"github.com/aptscope/aptscope-backend/internal/engine"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
	"github.com/aptscope/aptscope-backend/internal/services"
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

func TestNewSearchHandler(t *testing.T) {
	log := newTestLogger(t)
	trades := services.NewTradeService(log, engine.New(engine.Options{}))
	if h := NewSearchHandler(trades); h == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestNewStatsHandler(t *testing.T) {
	log := newTestLogger(t)
	eng := engine.New(engine.Options{})
	trades := services.NewTradeService(log, eng)
	stats := services.NewStatsService(log, eng, nil)
	if h := NewStatsHandler(trades, stats); h == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestNewAdminHandler(t *testing.T) {
	if h := NewAdminHandler(nil, nil); h == nil {
		t.Fatal("expected non-nil handler")
	}
}

func TestNewHealthHandler(t *testing.T) {
	if h := NewHealthHandler(nil); h == nil {
		t.Fatal("expected non-nil handler")
	}
}
