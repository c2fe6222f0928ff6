package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/report"
)

// @Summary      Monthly summary
// @Description  Aggregated lesson, billing and payment view for one month
// @Tags         summary
// @Produce      json
// @Param        tutor_id  query  string  true  "Tutor ID"
// @Param        month     query  string  true  "Month (YYYY-MM)"
// @Success      200  {object}  map[string]any
// @Router       /summary [get]
func (s *Server) GetMonthlySummary(c *gin.Context) {
	tutorID, ok := idQuery(c, "tutor_id")
	if !ok {
		return
	}
	month, ok := monthQuery(c)
	if !ok {
		return
	}

	summary, err := s.summarySvc.MonthlySummary(c.Request.Context(), tutorID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, summary)
}

// @Summary      Download payment report
// @Description  Renders the monthly summary as a CSV or PDF attachment
// @Tags         summary
// @Produce      text/csv
// @Param        tutor_id  query  string  true   "Tutor ID"
// @Param        month     query  string  true   "Month (YYYY-MM)"
// @Param        format    query  string  false  "csv or pdf (default csv)"
// @Success      200  {file}  file
// @Router       /report [get]
func (s *Server) DownloadReport(c *gin.Context) {
	tutorID, ok := idQuery(c, "tutor_id")
	if !ok {
		return
	}
	month, ok := monthQuery(c)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))

	summary, err := s.summarySvc.MonthlySummary(c.Request.Context(), tutorID, month)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	payments, err := s.paymentSvc.ListByMonth(c.Request.Context(), month)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var data []byte
	var contentType string
	switch format {
	case "csv":
		contentType = "text/csv"
		data, err = s.exporter.CSV(summary, payments)
	case "pdf":
		contentType = "application/pdf"
		data, err = s.exporter.PDF(summary, payments)
	default:
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+report.Filename(month, format)+"\"")
	c.Data(http.StatusOK, contentType, data)
}
