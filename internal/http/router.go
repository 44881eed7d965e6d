package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/aptscope/aptscope-backend/internal/http/handlers"
	httpMW "github.com/aptscope/aptscope-backend/internal/http/middleware"
	"github.com/aptscope/aptscope-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	SearchHandler *httpH.SearchHandler
	StatsHandler  *httpH.StatsHandler
	AdminHandler  *httpH.AdminHandler
	HealthHandler *httpH.HealthHandler

	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware("aptscope"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Search
		if cfg.SearchHandler != nil {
			api.GET("/search", cfg.SearchHandler.Search)
		}

		// Statistics
		if cfg.StatsHandler != nil {
			api.GET("/apartments/:id/stats", cfg.StatsHandler.ApartmentStats)
			api.GET("/regions/:id/volumes", cfg.StatsHandler.RegionVolumes)
			api.GET("/regions/:id/rvol", cfg.StatsHandler.RegionRVOL)
			api.GET("/regions/:id/quadrant", cfg.StatsHandler.RegionQuadrant)
		}

		// Admin
		if cfg.AdminHandler != nil {
			admin := api.Group("/admin")
			admin.POST("/rebuild", cfg.AdminHandler.Rebuild)
			admin.POST("/import", cfg.AdminHandler.Import)
			admin.GET("/runs", cfg.AdminHandler.Runs)
		}
	}

	return r
}
