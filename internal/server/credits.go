package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCreditBalance(c *gin.Context) {
	balance, err := s.creditSvc.Balance(c.Request.Context(), s.userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) ListCreditGrants(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	grants, err := s.creditSvc.List(c.Request.Context(), s.userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

type consumeRequest struct {
	Words int64 `json:"words" binding:"required,gt=0"`
}

// ConsumeCredits draws down the caller's balance as the grammar checker
// processes text.
func (s *Server) ConsumeCredits(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("words", "invalid_words", "words must be a positive integer"))
		return
	}

	if err := s.creditSvc.Consume(c.Request.Context(), s.userID(c), req.Words); err != nil {
		AbortWithError(c, err)
		return
	}

	balance, err := s.creditSvc.Balance(c.Request.Context(), s.userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (s *Server) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := s.transactionRepo.ListByUser(c.Request.Context(), s.db, s.userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

func (s *Server) ListCharges(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := s.chargeRepo.ListByUser(c.Request.Context(), s.db, s.userID(c), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"charges": items})
}
