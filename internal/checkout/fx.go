package checkout

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/checkout/service"
)

var Module = fx.Module("checkout",
	fx.Provide(service.New),
)
