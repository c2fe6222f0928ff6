package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	"github.com/shopspring/decimal"
)

type putRateScheduleRequest struct {
	TutorID                string                                   `json:"tutor_id"`
	DefaultRate            decimal.Decimal                          `json:"default_rate"`
	DefaultBaseDurationMin int                                      `json:"default_base_duration_min"`
	CombinedSessionRate    decimal.Decimal                          `json:"combined_session_rate"`
	SubjectRates           map[string]ratedomain.SubjectRateConfig `json:"subject_rates"`
}

// @Summary      Get Rate Schedule
// @Description  The tutor's full pricing snapshot
// @Tags         rates
// @Produce      json
// @Param        tutor_id  query  string  true  "Tutor ID"
// @Success      200  {object}  map[string]any
// @Router       /rate-schedule [get]
func (s *Server) GetRateSchedule(c *gin.Context) {
	tutorID, ok := idQuery(c, "tutor_id")
	if !ok {
		return
	}

	schedule, err := s.rateSvc.Schedule(c.Request.Context(), tutorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, schedule)
}

// @Summary      Put Rate Schedule
// @Description  Replace the tutor's rate schedule after validation
// @Tags         rates
// @Accept       json
// @Produce      json
// @Param        request body putRateScheduleRequest true "Rate Schedule"
// @Success      200  {object}  map[string]any
// @Router       /rate-schedule [put]
func (s *Server) PutRateSchedule(c *gin.Context) {
	var req putRateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tutorID, err := snowflake.ParseString(strings.TrimSpace(req.TutorID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	schedule := ratedomain.Schedule{
		TutorID:                tutorID,
		DefaultRate:            req.DefaultRate,
		DefaultBaseDurationMin: req.DefaultBaseDurationMin,
		CombinedSessionRate:    req.CombinedSessionRate,
		SubjectRates:           req.SubjectRates,
	}
	if err := s.rateSvc.Save(c.Request.Context(), schedule); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, schedule)
}
