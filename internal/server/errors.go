package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/pricing"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrInternal       = errors.New("internal_error")
)

type apiError struct {
	status int
	code   string
}

// errorStatus maps domain sentinels to an HTTP status and stable error code.
func errorStatus(err error) apiError {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return apiError{http.StatusBadRequest, "invalid_request"}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ratedomain.ErrScheduleNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, studentdomain.ErrParentNotFound),
		errors.Is(err, studentdomain.ErrStudentNotFound),
		errors.Is(err, lessondomain.ErrLessonNotFound):
		return apiError{http.StatusNotFound, err.Error()}
	case errors.Is(err, lessondomain.ErrInvalidTransition):
		return apiError{http.StatusConflict, err.Error()}
	case errors.Is(err, ratedomain.ErrInvalidAmount),
		errors.Is(err, ratedomain.ErrInvalidBaseDuration),
		errors.Is(err, ratedomain.ErrUnsupportedDuration),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrNothingToInvoice),
		errors.Is(err, pricing.ErrInvalidRateInput):
		return apiError{http.StatusUnprocessableEntity, err.Error()}
	default:
		return apiError{http.StatusInternalServerError, "internal_error"}
	}
}

func AbortWithError(c *gin.Context, err error) {
	e := errorStatus(err)
	c.AbortWithStatusJSON(e.status, gin.H{"error": gin.H{"code": e.code}})
}
