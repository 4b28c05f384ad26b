package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/middleware"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/internal/web"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-console/pkg/middleware/requestid"
	"github.com/noah-isme/student-console/pkg/observability"
)

// Handlers groups everything the router mounts. Analytics and Audit are
// optional.
type Handlers struct {
	Console   *ConsoleHandler
	Students  *StudentAPIHandler
	Analytics *AnalyticsHandler
	Exports   *ExportHandler
	Metrics   *MetricsHandler
	Audit     *AuditHandler
}

// NewRouter builds the gin engine with the console, JSON API, exports and
// observability routes.
func NewRouter(cfg *config.Config, h Handlers, metrics *service.MetricsService, logr *zap.Logger) (*gin.Engine, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(observability.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.ContextSessionKey))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	pages := r.Group("/")
	pages.Use(middleware.Session(cfg.Session))
	h.Console.Register(pages)
	pages.GET("/exports/:file", h.Exports.Download)

	api := r.Group(cfg.APIPrefix)
	api.GET("/students", h.Students.List)
	api.POST("/students/validate", h.Students.Validate)
	if h.Analytics != nil {
		api.GET("/students/analytics", h.Analytics.Scores)
	}
	api.GET("/students/:id", h.Students.Get)
	api.GET("/stats", h.Metrics.Stats)
	if h.Audit != nil {
		api.GET("/audit", h.Audit.Recent)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r, nil
}
