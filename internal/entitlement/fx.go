package entitlement

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/entitlement/repository"
)

var Module = fx.Module("entitlement",
	fx.Provide(repository.Provide),
)
