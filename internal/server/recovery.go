package server

import (
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	reconciledomain "github.com/shuddhilabs/shuddhi/internal/reconcile/domain"
)

type recoverOrderRequest struct {
	OrderID        string `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	PaymentID      string `json:"payment_id"`
	Operator       string `json:"operator" binding:"required"`
}

// RecoverOrder lets an operator settle an order whose webhook never landed.
func (s *Server) RecoverOrder(c *gin.Context) {
	var req recoverOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	if req.OrderID == "" && req.GatewayOrderID == "" {
		AbortWithError(c, newValidationError("order_id", "missing_order", "order_id or gateway_order_id is required"))
		return
	}

	var orderID snowflake.ID
	if req.OrderID != "" {
		parsed, err := snowflake.ParseString(req.OrderID)
		if err != nil {
			AbortWithError(c, newValidationError("order_id", "invalid_id", "invalid order id"))
			return
		}
		orderID = parsed
	}

	transition, err := s.reconcilerSvc.RecoverOrder(c.Request.Context(), reconciledomain.RecoveryRequest{
		OrderID:        orderID,
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Operator:       req.Operator,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, transition)
}

func (s *Server) ListWebhookEvents(c *gin.Context) {
	onlyFailed := c.Query("status") == "failed"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	events, err := s.ingest.ListEvents(c.Request.Context(), onlyFailed, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
