package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/privlens/privlens/internal/config"
	"github.com/privlens/privlens/internal/infrastructure/monitoring/logging"
	"github.com/privlens/privlens/internal/interfaces/http/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Analysis        *AnalysisHandler
	Personalization *PersonalizationHandler
	Preference      *PreferenceHandler
	Clause          *ClauseHandler
	Site            *SiteHandler
	Health          *HealthHandler
}

// NewRouter assembles the gin engine with the full middleware stack and all
// routes.  metricsHandler may be nil to disable the exposition endpoint.
func NewRouter(
	cfg config.ServerConfig,
	metricsCfg config.MetricsConfig,
	h Handlers,
	log logging.Logger,
	metrics middleware.RequestMetrics,
	metricsHandler nethttp.Handler,
) *gin.Engine {
	gin.SetMode(ginMode(cfg.Mode))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logging(log.Named("http"), metrics))
	r.Use(middleware.CORS())
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitRPS))
	}

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	if metricsCfg.Enabled && metricsHandler != nil {
		r.GET(metricsCfg.Path, gin.WrapH(metricsHandler))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/analyses", h.Analysis.Analyze)
		v1.POST("/analyses/quality", h.Analysis.Quality)
		v1.GET("/analyses/:hash", h.Analysis.Get)

		v1.GET("/users/:user_id/history", h.Personalization.History)
		v1.POST("/results/:id/decision", h.Personalization.Decide)

		v1.GET("/users/:user_id/preferences", h.Preference.Get)
		v1.PUT("/users/:user_id/preferences", h.Preference.Update)
		v1.GET("/preferences/flags", h.Preference.Flags)

		v1.GET("/clauses", h.Clause.List)
		v1.GET("/clauses/:fingerprint", h.Clause.Get)

		v1.POST("/sites", h.Site.Register)
		v1.GET("/sites", h.Site.List)
		v1.GET("/sites/:id", h.Site.Get)
		v1.POST("/sites/:id/documents", h.Site.ObserveDocument)
	}

	return r
}

func ginMode(mode string) string {
	switch mode {
	case "debug":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
