package reconcile

import (
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/reconcile/repository"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/service"
	"github.com/shuddhilabs/shuddhi/internal/reconcile/webhook"
)

var Module = fx.Module("reconcile",
	fx.Provide(repository.ProvideEvents),
	fx.Provide(service.New),
	fx.Provide(webhook.NewIngest),
)
