package subscription

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/subscription/repository"
)

var Module = fx.Module("subscription",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideMandate),
	fx.Provide(repository.ProvideCharge),
)
