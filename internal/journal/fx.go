package journal

import (
	"github.com/smallbiznis/dropin/internal/journal/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("journal",
	fx.Provide(repository.Provide),
)
