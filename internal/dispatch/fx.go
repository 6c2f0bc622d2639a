package dispatch

import (
	"context"

	dispatchdomain "github.com/smallbiznis/dropin/internal/dispatch/domain"
	"github.com/smallbiznis/dropin/internal/dispatch/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dispatch.service",
	fx.Provide(service.DefaultQueueConfig),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) dispatchdomain.Service { return s }),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, s *service.Service) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
