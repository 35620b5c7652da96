package transaction

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/transaction/repository"
)

var Module = fx.Module("transaction",
	fx.Provide(repository.Provide),
)
