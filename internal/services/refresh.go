package services

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron"

	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

// RefreshService rebuilds the engine snapshot on a schedule, picking up
// rows written by out-of-process collectors and recomputing every derived
// structure in one swap.
type RefreshService interface {
	Start() error
	Stop()
}

type refreshService struct {
	log       *logger.Logger
	engineSvc EngineService
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
}

// NewRefreshService accepts a cron spec such as "@every 30m" or
// "0 0 6 * * *". An empty or "off" schedule disables the service.
func NewRefreshService(log *logger.Logger, engineSvc EngineService, schedule string, timeout time.Duration) RefreshService {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &refreshService{
		log:       log.With("service", "RefreshService"),
		engineSvc: engineSvc,
		schedule:  strings.TrimSpace(schedule),
		timeout:   timeout,
	}
}

func (s *refreshService) Start() error {
	if s.schedule == "" || strings.EqualFold(s.schedule, "off") {
		s.log.Info("periodic refresh disabled")
		return nil
	}

	c := cron.New()
	err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.engineSvc.Rebuild(ctx); err != nil {
			s.log.Error("scheduled rebuild failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Info("periodic refresh scheduled", "schedule", s.schedule)
	return nil
}

func (s *refreshService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
