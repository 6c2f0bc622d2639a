package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/dropin/internal/clock"
	"github.com/smallbiznis/dropin/internal/config"
	"github.com/smallbiznis/dropin/internal/dispatch"
	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	"github.com/smallbiznis/dropin/internal/journal"
	"github.com/smallbiznis/dropin/internal/journal/repository"
	"github.com/smallbiznis/dropin/internal/observability/logger"
	"github.com/smallbiznis/dropin/internal/payments"
	"github.com/smallbiznis/dropin/internal/relay"
	"github.com/smallbiznis/dropin/internal/server"
	"github.com/smallbiznis/dropin/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		journal.Module,
		relay.Module,
		payments.Module,

		fx.Provide(newEchoHandler),
		fx.Provide(func(h *echoHandler) dispatchdomain.Handler { return h }),
		dispatch.Module,

		fx.Invoke(func(conn *gorm.DB) error {
			return repository.Migrate(conn)
		}),
		fx.Invoke(bindEchoCompleter),

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server, engine *gin.Engine) {
			s.RegisterAPIRoutes(engine)
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func bindEchoCompleter(h *echoHandler, svc dispatchdomain.Service) {
	h.completer = svc
}
