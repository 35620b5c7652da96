package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/shuddhilabs/shuddhi/internal/checkout"
	"github.com/shuddhilabs/shuddhi/internal/clock"
	"github.com/shuddhilabs/shuddhi/internal/config"
	"github.com/shuddhilabs/shuddhi/internal/credit"
	"github.com/shuddhilabs/shuddhi/internal/entitlement"
	"github.com/shuddhilabs/shuddhi/internal/gateway"
	"github.com/shuddhilabs/shuddhi/internal/migration"
	"github.com/shuddhilabs/shuddhi/internal/observability"
	"github.com/shuddhilabs/shuddhi/internal/order"
	"github.com/shuddhilabs/shuddhi/internal/plan"
	"github.com/shuddhilabs/shuddhi/internal/ratelimit"
	"github.com/shuddhilabs/shuddhi/internal/reconcile"
	"github.com/shuddhilabs/shuddhi/internal/server"
	"github.com/shuddhilabs/shuddhi/internal/subscription"
	"github.com/shuddhilabs/shuddhi/internal/transaction"
	"github.com/shuddhilabs/shuddhi/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		plan.Module,
		order.Module,
		subscription.Module,
		credit.Module,
		entitlement.Module,
		transaction.Module,
		gateway.Module,
		checkout.Module,
		reconcile.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
