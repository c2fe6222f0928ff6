package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/shopspring/decimal"
)

type generatePaymentRequest struct {
	TutorID  string `json:"tutor_id"`
	ParentID string `json:"parent_id"`
	Month    string `json:"month"`
}

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// @Summary      Generate Payment
// @Description  Invoice a family's completed, unlinked lessons for one month
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body generatePaymentRequest true "Generate Request"
// @Success      200  {object}  map[string]any
// @Router       /payments/generate [post]
func (s *Server) GeneratePayment(c *gin.Context) {
	var req generatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tutorID, err := snowflake.ParseString(strings.TrimSpace(req.TutorID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	parentID, err := snowflake.ParseString(strings.TrimSpace(req.ParentID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	month, err := billmonth.Parse(strings.TrimSpace(req.Month))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.Generate(c.Request.Context(), tutorID, parentID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, payment)
}

// @Summary      Record Payment
// @Description  Apply a received amount to a payment and derive its status
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id       path  string                true  "Payment ID"
// @Param        request  body  recordPaymentRequest  true  "Record Request"
// @Success      200  {object}  map[string]any
// @Router       /payments/{id}/record [post]
func (s *Server) RecordPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.Record(c.Request.Context(), id, req.Amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, payment)
}
