package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
)

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// idParam parses a snowflake path parameter.
func idParam(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

// idQuery parses a required snowflake query parameter.
func idQuery(c *gin.Context, name string) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Query(name)))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

// monthQuery parses the required month=YYYY-MM query parameter.
func monthQuery(c *gin.Context) (billmonth.Month, bool) {
	m, err := billmonth.Parse(strings.TrimSpace(c.Query("month")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return billmonth.Month{}, false
	}
	return m, true
}
