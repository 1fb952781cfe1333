package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/handlers"
)

// Server is the terminal's HTTP front: the session API, the resolved
// configuration, health endpoints, Prometheus metrics and the static
// browser views.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	httpServer *http.Server
}

// New builds the server and wires all routes.
func New(h *handlers.Handlers, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(BearerToken())
	router.Use(Metrics())
	router.Use(AccessLog())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)
	s.router.GET("/version", s.handlers.Version)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/tables", s.handlers.ListTables)
		v1.GET("/configuration", s.handlers.GetConfiguration)
		v1.POST("/configuration/refresh", s.handlers.RefreshConfiguration)

		v1.POST("/sessions", s.handlers.CreateSession)
		v1.GET("/sessions/:id", s.handlers.GetSession)
		v1.DELETE("/sessions/:id", s.handlers.CloseSession)

		v1.PUT("/sessions/:id/table", s.handlers.SelectTable)
		v1.PUT("/sessions/:id/payment-method", s.handlers.SetPaymentMethod)
		v1.PUT("/sessions/:id/tip/preset", s.handlers.SelectTipPreset)
		v1.PUT("/sessions/:id/tip/custom", s.handlers.SetCustomTip)

		v1.POST("/sessions/:id/split", s.handlers.EnterSplit)
		v1.DELETE("/sessions/:id/split", s.handlers.CancelSplit)
		v1.PUT("/sessions/:id/split/people", s.handlers.SetPersonCount)
		v1.POST("/sessions/:id/split/assign", s.handlers.AssignItem)
		v1.POST("/sessions/:id/split/unassign", s.handlers.UnassignItem)
		v1.POST("/sessions/:id/split/apply", s.handlers.ApplySplit)

		v1.GET("/sessions/:id/summary", s.handlers.GetSummary)
		v1.POST("/sessions/:id/payment", s.handlers.ProcessPayment)
	}

	s.handlers.RegisterViews(s.router)
}

// Start runs the server until Shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// route returns the matched route template for metric labels, keeping
// cardinality bounded for parameterized paths.
func route(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}
