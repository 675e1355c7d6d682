package router

import (
	"net/http"

	"threadbox/internal/app/conversation"
	"threadbox/internal/app/health"
	"threadbox/internal/app/user"
	"threadbox/internal/config"
	"threadbox/internal/middleware"

	_ "threadbox/docs"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
	auth   gin.HandlerFunc
}

func NewRouter(cfg *config.Config, logger *zap.Logger, parser middleware.TokenParser) *Router {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.CORSMiddleware(cfg.FrontendURL))
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(gin.Recovery())
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	})
	return &Router{
		Engine: engine,
		auth:   middleware.AuthMiddleware(parser, logger),
	}
}

func (r *Router) api() *gin.RouterGroup {
	return r.Engine.Group("/api")
}

func (r *Router) authenticated() *gin.RouterGroup {
	return r.Engine.Group("/api", r.auth)
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.api(), handler)
}

func (r *Router) RegisterUserRoutes(handler user.Handler) {
	user.RegisterRoutes(r.authenticated(), handler)
}

func (r *Router) RegisterConversationRoutes(handler conversation.Handler) {
	conversation.RegisterRoutes(r.authenticated(), handler)
}

func (r *Router) RegisterMetricsRoutes(gatherer prometheus.Gatherer) {
	r.Engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}

func (r *Router) RegisterSwaggerRoutes() {
	r.Engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
