package credit

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/credit/repository"
	"github.com/shuddhilabs/shuddhi/internal/credit/service"
)

var Module = fx.Module("credit",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
