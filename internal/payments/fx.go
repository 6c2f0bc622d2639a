package payments

import (
	"github.com/smallbiznis/dropin/internal/payments/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("payments.model",
	fx.Provide(domain.NewRegistry),
)
