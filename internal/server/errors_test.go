package server

import (
	"errors"
	"net/http"
	"testing"

	creditdomain "github.com/shuddhilabs/shuddhi/internal/credit/domain"
	gatewaydomain "github.com/shuddhilabs/shuddhi/internal/gateway/domain"
	orderdomain "github.com/shuddhilabs/shuddhi/internal/order/domain"
	reconciledomain "github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown order resolves to not found", reconciledomain.ErrUnknownOrder, http.StatusNotFound},
		{"unknown subscription resolves to not found", reconciledomain.ErrUnknownSubscription, http.StatusNotFound},
		{"order not found", orderdomain.ErrOrderNotFound, http.StatusNotFound},
		{"bad signature", reconciledomain.ErrSignatureInvalid, http.StatusUnauthorized},
		{"insufficient credits", creditdomain.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"already paid", orderdomain.ErrOrderAlreadyPaid, http.StatusConflict},
		{"gateway failure", &gatewaydomain.GatewayError{Op: "order.create", Description: "down"}, http.StatusBadGateway},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := mapError(tc.err)
			if status != tc.status {
				t.Fatalf("mapError(%v) = %d, want %d", tc.err, status, tc.status)
			}
		})
	}
}
