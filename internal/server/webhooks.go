package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	headerSignature = "X-Razorpay-Signature"
	headerEventID   = "x-razorpay-event-id"
)

// HandleRazorpayWebhook accepts a delivery, runs it through the ingest
// pipeline and answers 200 only once the event's effects are durable.
// Deliveries referencing an unknown order or subscription answer 404; other
// processing failures return a 5xx so the provider redelivers. Either way
// the event row stays unprocessed until a later delivery succeeds.
func (s *Server) HandleRazorpayWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	transition, err := s.ingest.Handle(
		c.Request.Context(),
		body,
		c.GetHeader(headerSignature),
		c.GetHeader(headerEventID),
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"transition": transition,
	})
}
