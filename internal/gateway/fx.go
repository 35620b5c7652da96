package gateway

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/gateway/razorpay"
)

var Module = fx.Module("gateway",
	fx.Provide(razorpay.New),
)
