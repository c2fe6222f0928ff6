package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	"github.com/shopspring/decimal"
)

type createLessonRequest struct {
	TutorID        string           `json:"tutor_id"`
	StudentID      string           `json:"student_id"`
	Subject        string           `json:"subject"`
	ScheduledAt    time.Time        `json:"scheduled_at"`
	DurationMin    int              `json:"duration_min"`
	SessionID      *string          `json:"session_id"`
	OverrideAmount *decimal.Decimal `json:"override_amount"`
}

// @Summary      Create Lesson
// @Description  Schedule a lesson for a student
// @Tags         lessons
// @Accept       json
// @Produce      json
// @Param        request body createLessonRequest true "Create Lesson Request"
// @Success      200  {object}  map[string]any
// @Router       /lessons [post]
func (s *Server) CreateLesson(c *gin.Context) {
	var req createLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tutorID, err := snowflake.ParseString(strings.TrimSpace(req.TutorID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	studentID, err := snowflake.ParseString(strings.TrimSpace(req.StudentID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	lesson := &lessondomain.Lesson{
		TutorID:        tutorID,
		StudentID:      studentID,
		Subject:        strings.ToLower(strings.TrimSpace(req.Subject)),
		ScheduledAt:    req.ScheduledAt,
		DurationMin:    req.DurationMin,
		OverrideAmount: req.OverrideAmount,
	}
	if req.SessionID != nil {
		sessionID, err := snowflake.ParseString(strings.TrimSpace(*req.SessionID))
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		lesson.SessionID = &sessionID
	}

	if err := s.lessonSvc.Create(c.Request.Context(), lesson); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, lesson)
}

// @Summary      Complete Lesson
// @Description  Mark a scheduled lesson completed; consumes prepaid or emits an invoice amount
// @Tags         lessons
// @Produce      json
// @Param        id  path  string  true  "Lesson ID"
// @Success      200  {object}  map[string]any
// @Router       /lessons/{id}/complete [post]
func (s *Server) CompleteLesson(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := s.lessonSvc.Complete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}

// @Summary      Uncomplete Lesson
// @Description  Revert a completed lesson to scheduled; releases any prepaid usage
// @Tags         lessons
// @Produce      json
// @Param        id  path  string  true  "Lesson ID"
// @Success      200  {object}  map[string]any
// @Router       /lessons/{id}/uncomplete [post]
func (s *Server) UncompleteLesson(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := s.lessonSvc.Uncomplete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}

// @Summary      Cancel Lesson
// @Description  Cancel a lesson and detach it from any open payment
// @Tags         lessons
// @Produce      json
// @Param        id  path  string  true  "Lesson ID"
// @Success      200  {object}  map[string]any
// @Router       /lessons/{id}/cancel [post]
func (s *Server) CancelLesson(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	result, err := s.lessonSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}

// @Summary      Cleanup Cancelled Lessons
// @Description  Detach payment links still held by cancelled lessons
// @Tags         lessons
// @Produce      json
// @Param        tutor_id  query  string  true  "Tutor ID"
// @Success      200  {object}  map[string]any
// @Router       /lessons/cleanup [post]
func (s *Server) CleanupCancelledLessons(c *gin.Context) {
	tutorID, ok := idQuery(c, "tutor_id")
	if !ok {
		return
	}

	detached, err := s.lessonSvc.CancelCleanup(c.Request.Context(), tutorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"detached": detached})
}
