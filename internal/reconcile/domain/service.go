package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// RecoveryRequest identifies a stuck order an operator wants settled. Either
// the internal or the gateway order id selects the order; the payment id is
// optional and is otherwise discovered from the gateway.
type RecoveryRequest struct {
	OrderID        snowflake.ID
	GatewayOrderID string
	PaymentID      string
	Operator       string
}

type Service interface {
	// ApplyEvent runs one canonical event through the settlement state
	// machine. It is safe to call any number of times with the same event.
	ApplyEvent(ctx context.Context, event GatewayEvent) (*Transition, error)
	RecoverOrder(ctx context.Context, req RecoveryRequest) (*Transition, error)
}
