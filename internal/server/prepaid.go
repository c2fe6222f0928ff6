package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
)

type topupPrepaidRequest struct {
	ParentID string  `json:"parent_id"`
	Month    string  `json:"month"`
	Subject  *string `json:"subject"`
	Sessions int     `json:"sessions"`
}

// @Summary      List Prepaid Accounts
// @Description  A family's prepaid balances for one month
// @Tags         prepaid
// @Produce      json
// @Param        parent_id  query  string  true  "Parent ID"
// @Param        month      query  string  true  "Month (YYYY-MM)"
// @Success      200  {object}  map[string]any
// @Router       /prepaid [get]
func (s *Server) ListPrepaidAccounts(c *gin.Context) {
	parentID, ok := idQuery(c, "parent_id")
	if !ok {
		return
	}
	month, ok := monthQuery(c)
	if !ok {
		return
	}

	accounts, err := s.prepaidSvc.ListForParentMonth(c.Request.Context(), parentID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, accounts)
}

// @Summary      Topup Prepaid
// @Description  Add prepaid sessions to a family's account, creating it if needed
// @Tags         prepaid
// @Accept       json
// @Produce      json
// @Param        request body topupPrepaidRequest true "Topup Request"
// @Success      200  {object}  map[string]any
// @Router       /prepaid/topup [post]
func (s *Server) TopupPrepaid(c *gin.Context) {
	var req topupPrepaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if req.Sessions <= 0 {
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
	var subject *string
	if req.Subject != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Subject))
		if normalized != "" {
			subject = &normalized
		}
	}

	account, err := s.prepaidSvc.Topup(c.Request.Context(), parentID, month, subject, req.Sessions)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, account)
}

// @Summary      Rollover Prepaid
// @Description  Carry a family's unused balance into the following month
// @Tags         prepaid
// @Produce      json
// @Param        parent_id  query  string  true  "Parent ID"
// @Param        month      query  string  true  "Month (YYYY-MM)"
// @Success      200  {object}  map[string]any
// @Router       /prepaid/rollover [post]
func (s *Server) RolloverPrepaid(c *gin.Context) {
	parentID, ok := idQuery(c, "parent_id")
	if !ok {
		return
	}
	month, ok := monthQuery(c)
	if !ok {
		return
	}

	carried, err := s.prepaidSvc.Rollover(c.Request.Context(), parentID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"sessions_carried": carried})
}
