package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/shuddhilabs/shuddhi/internal/checkout/domain"
)

type checkoutRequest struct {
	WordPlanID string                      `json:"word_plan_id" binding:"required"`
	Customer   checkoutdomain.CustomerInfo `json:"customer" binding:"required"`
}

func (r checkoutRequest) planID() (snowflake.ID, error) {
	return snowflake.ParseString(r.WordPlanID)
}

func (s *Server) CreateOrderCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	planID, err := req.planID()
	if err != nil {
		AbortWithError(c, newValidationError("word_plan_id", "invalid_id", "invalid plan id"))
		return
	}

	resp, err := s.checkoutSvc.CreateOrder(c.Request.Context(), checkoutdomain.OrderCheckoutRequest{
		UserID:     s.userID(c),
		WordPlanID: planID,
		Customer:   req.Customer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) CreateSubscriptionCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}
	planID, err := req.planID()
	if err != nil {
		AbortWithError(c, newValidationError("word_plan_id", "invalid_id", "invalid plan id"))
		return
	}

	resp, err := s.checkoutSvc.CreateSubscription(c.Request.Context(), checkoutdomain.SubscriptionCheckoutRequest{
		UserID:     s.userID(c),
		WordPlanID: planID,
		Customer:   req.Customer,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.planRepo.ListActive(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}
