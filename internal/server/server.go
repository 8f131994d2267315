package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/volumekit/volumed/internal/config"
	vhttp "github.com/volumekit/volumed/internal/http"
	"github.com/volumekit/volumed/internal/logging"
	"github.com/volumekit/volumed/internal/middleware"
	"github.com/volumekit/volumed/internal/monitoring"
	"github.com/volumekit/volumed/internal/providers/files"
	"github.com/volumekit/volumed/internal/service"
	"github.com/volumekit/volumed/internal/vfs"
)

// Server wires the engine and facades behind one HTTP listener.
type Server struct {
	cfg     *config.Config
	log     *logging.Logger
	engine  *gin.Engine
	httpSrv *http.Server
	ops     *vfs.Ops
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewDefault()
	}

	if cfg.Volume.CreateRoot {
		if err := os.MkdirAll(cfg.Volume.Root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create volume root %s: %w", cfg.Volume.Root, err)
		}
	}

	ops, err := vfs.NewOps(cfg.Volume.Root, log.Named("vfs").Logger, vfs.Options{
		MaxReadBytes:      cfg.Volume.MaxReadBytes,
		AllowedExtensions: cfg.Volume.AllowedExtensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open volume root: %w", err)
	}

	metrics := monitoring.NewMetrics()
	stats := vfs.NewAggregator(ops, cfg.Stats.CacheTTL)

	registry := service.NewRegistry()
	if err := registry.Register(files.New(ops, stats, metrics, log)); err != nil {
		return nil, fmt.Errorf("failed to register filesystem service: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:          12 * time.Hour,
	}))
	if cfg.RateLimit.Enabled {
		engine.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	}

	handlers := vhttp.NewHandlers(ops, stats, registry, metrics, log)
	registerRoutes(engine, handlers, metrics)

	srv := &Server{
		cfg:    cfg,
		log:    log.Named("server"),
		engine: engine,
		ops:    ops,
		httpSrv: &http.Server{
			Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
	return srv, nil
}

func registerRoutes(engine *gin.Engine, h *vhttp.Handlers, metrics *monitoring.Metrics) {
	engine.GET("/", h.Root)
	engine.GET("/health", h.Health)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)))

	engine.GET("/files", h.ListFiles)
	engine.GET("/files/*path", h.GetFile)
	engine.POST("/files/*path", h.PutFile)
	engine.DELETE("/files/*path", h.DeleteFile)

	engine.POST("/directories/*path", h.CreateDirectory)
	engine.GET("/stats", h.Stats)

	engine.GET("/services", h.ListServices)
	engine.POST("/services/discover", h.DiscoverServices)
	engine.POST("/services/execute", h.ExecuteTool)
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run starts the HTTP listener and blocks until it stops.
func (s *Server) Run() error {
	s.log.Info("server starting",
		zap.String("addr", s.httpSrv.Addr),
		zap.String("volume_root", s.ops.Root()))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	return s.httpSrv.Shutdown(ctx)
}
