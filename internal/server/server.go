package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dropin/internal/clock"
	"github.com/smallbiznis/dropin/internal/config"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	"github.com/smallbiznis/dropin/internal/observability/logger"
	paymentsdomain "github.com/smallbiznis/dropin/internal/payments/domain"
	"github.com/smallbiznis/dropin/internal/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Dispatch dispatchdomain.Service
	Journal  journaldomain.Repository
	Relay    *relay.Relay
	Registry *paymentsdomain.Registry
}

// Server bridges non-Go UI layers onto the dispatcher and journal.
type Server struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	clock    clock.Clock
	dispatch dispatchdomain.Service
	journal  journaldomain.Repository
	relay    *relay.Relay
	registry *paymentsdomain.Registry
}

func NewServer(p Params) *Server {
	return &Server{
		db:       p.DB,
		log:      p.Log.Named("server"),
		cfg:      p.Cfg,
		clock:    p.Clock,
		dispatch: p.Dispatch,
		journal:  p.Journal,
		relay:    p.Relay,
		registry: p.Registry,
	}
}

func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:    log.Named("http"),
		SkipPaths: []string{"/healthz"},
	}))
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

func (s *Server) RegisterAPIRoutes(engine *gin.Engine) {
	limiter := newRateLimiter(60, time.Minute, s.clock)

	api := engine.Group("/api/checkout")
	api.POST("/payments", limiter.Middleware(), s.SubmitPayments)
	api.POST("/details", limiter.Middleware(), s.SubmitDetails)
	api.GET("/results/latest", s.LatestResult)
	api.GET("/results/wait", s.WaitResult)
	api.GET("/results/envelope/:envelope_id", s.ResultByEnvelope)
}

func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
