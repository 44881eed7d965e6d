package app

import (
	"github.com/aptscope/aptscope-backend/internal/http"
	httpH "github.com/aptscope/aptscope-backend/internal/http/handlers"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Search *httpH.SearchHandler
	Stats  *httpH.StatsHandler
	Admin  *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(services.Engine),
		Search: httpH.NewSearchHandler(services.Trade),
		Stats:  httpH.NewStatsHandler(services.Trade, services.Stats),
		Admin:  httpH.NewAdminHandler(services.Engine, services.Ingest),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:           log,
		SearchHandler: handlers.Search,
		StatsHandler:  handlers.Stats,
		AdminHandler:  handlers.Admin,
		HealthHandler: handlers.Health,
		CORSOrigins:   cfg.CORSOrigins,
	})
}
