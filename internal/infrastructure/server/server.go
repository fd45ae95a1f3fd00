package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TxGate/internal/analysis"
	apihttp "github.com/GriffinCanCode/TxGate/internal/api/http"
	"github.com/GriffinCanCode/TxGate/internal/api/middleware"
	"github.com/GriffinCanCode/TxGate/internal/coordinator"
	"github.com/GriffinCanCode/TxGate/internal/gateway"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/config"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TxGate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TxGate/internal/relay"
	"github.com/GriffinCanCode/TxGate/internal/storage"
)

// Server wires storage, the relay bus, the coordinator and the HTTP
// surface into one runnable unit.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	bus     *relay.Bus
	coord   *coordinator.Coordinator
	gateway *gateway.Gateway
	store   storage.Store
	redis   *storage.Redis
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	cancel context.CancelFunc
}

// New creates a server from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("initializing txgate",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("analysis_endpoint", cfg.Analysis.Endpoint),
	)

	metrics, registry := monitoring.NewMetrics()

	store, redisStore, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus := relay.New(logger)
	bus.OnDrop(metrics.RelayDropped.Inc)

	analyzer := analysis.NewClient(
		cfg.Analysis.Endpoint,
		time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second,
		logger,
	)

	gw := gateway.New(bus, logger, metrics)

	coord := coordinator.New(coordinator.Config{
		Store:    store,
		Badge:    gw.Badge(),
		Relay:    bus.Attach(relay.Coordinator),
		Analyzer: analyzer,
		Logger:   logger,
		Metrics:  metrics,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(bus.Attach("api"), logger)

	router.GET("/", handlers.Root)
	router.GET("/healthz", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	{
		api.GET("/pending", handlers.Pending)
		api.GET("/history", handlers.History)
		api.DELETE("/history", handlers.ClearHistory)
		api.GET("/settings", handlers.GetSettings)
		api.POST("/settings", handlers.SaveSettings)
		api.GET("/chains", handlers.Chains)
	}

	router.GET("/ws", gw.HandleConnection)

	return &Server{
		router:  router,
		bus:     bus,
		coord:   coord,
		gateway: gw,
		store:   store,
		redis:   redisStore,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run performs startup recovery, starts the coordinator loop and serves
// HTTP until Close is called.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.coord.Startup(ctx); err != nil {
		cancel()
		return err
	}
	go s.coord.Run(ctx)

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.metrics.UpdateUptime()
			}
		}
	}()

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.http = &http.Server{Addr: addr, Handler: s.router}
	s.logger.Info("starting http server", zap.String("addr", addr))

	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("shutting down")
	if s.cancel != nil {
		s.cancel()
	}

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}

	return s.logger.Sync()
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func newStore(cfg *config.Config, logger *logging.Logger) (storage.Store, *storage.Redis, error) {
	switch cfg.Storage.Backend {
	case "redis":
		r := storage.NewRedis(cfg.Storage.RedisAddr, cfg.Storage.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Storage.RedisAddr, err)
		}
		logger.Info("using redis storage", zap.String("addr", cfg.Storage.RedisAddr))
		return r, r, nil
	case "memory":
		logger.Info("using in-memory storage, state will not survive restarts")
		return storage.NewMemory(), nil, nil
	case "file", "":
		f, err := storage.NewFile(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("file storage at %s: %w", cfg.Storage.Dir, err)
		}
		logger.Info("using file storage", zap.String("dir", cfg.Storage.Dir))
		return f, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}
