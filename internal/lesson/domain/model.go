// Package domain contains the scheduled-lesson record and its lifecycle
// contract. A lesson is created scheduled, moves to completed (billable) or
// cancelled (zero-billable), and a completion may be reverted.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrLessonNotFound    = errors.New("lesson_not_found")
	ErrInvalidTransition = errors.New("invalid_lesson_transition")
	ErrInvalidDuration   = errors.New("invalid_lesson_duration")
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Lesson struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TutorID     snowflake.ID `gorm:"not null;index" json:"tutor_id"`
	StudentID   snowflake.ID `gorm:"not null;index" json:"student_id"`
	Subject     string       `gorm:"type:text;not null" json:"subject"`
	ScheduledAt time.Time    `gorm:"not null;index" json:"scheduled_at"`
	DurationMin int          `gorm:"not null" json:"duration_min"`
	Status      Status       `gorm:"type:text;not null;default:scheduled" json:"status"`
	// SessionID groups co-occurring lessons into one combined session. A
	// non-nil SessionID prices the lesson at the flat combined-session rate
	// even when no sibling shares it.
	SessionID      *snowflake.ID     `gorm:"index" json:"session_id,omitempty"`
	OverrideAmount *decimal.Decimal  `gorm:"type:numeric" json:"override_amount,omitempty"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (Lesson) TableName() string { return "lessons" }

func (l Lesson) Month() billmonth.Month { return billmonth.Of(l.ScheduledAt) }

// metadataPrepaidAccount records which prepaid account covered the lesson's
// completion. The marker is what keeps a prepaid-covered lesson out of
// payment generation; it must be cleared whenever the completion is undone.
const metadataPrepaidAccount = "prepaid_account_id"

// PrepaidAccountID returns the account that covered this lesson, or nil when
// the completion was (or will be) invoiced instead.
func (l Lesson) PrepaidAccountID() *snowflake.ID {
	raw, ok := l.Metadata[metadataPrepaidAccount].(string)
	if !ok {
		return nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return nil
	}
	return &id
}

func (l *Lesson) MarkPrepaid(accountID snowflake.ID) {
	if l.Metadata == nil {
		l.Metadata = datatypes.JSONMap{}
	}
	l.Metadata[metadataPrepaidAccount] = accountID.String()
}

// ClearPrepaid removes the coverage marker and reports whether one was set.
func (l *Lesson) ClearPrepaid() bool {
	if _, ok := l.Metadata[metadataPrepaidAccount]; !ok {
		return false
	}
	delete(l.Metadata, metadataPrepaidAccount)
	return true
}

// TransitionResult is the plain-data command a status transition emits
// outward: either a prepaid slot was consumed (PrepaidAccountID set) or the
// lesson should be invoiced for InvoiceAmount. Exactly one is set for a
// completion; neither for a cancellation.
type TransitionResult struct {
	LessonID         snowflake.ID     `json:"lesson_id"`
	Status           Status           `json:"status"`
	PrepaidAccountID *snowflake.ID    `json:"prepaid_account_id,omitempty"`
	PrepaidReleased  bool             `json:"prepaid_released,omitempty"`
	InvoiceAmount    *decimal.Decimal `json:"invoice_amount,omitempty"`
	Formula          string           `json:"formula,omitempty"`
}

type Repository interface {
	Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Lesson, error)
	ListByMonth(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID, month billmonth.Month) ([]Lesson, error)
	ListCancelledWithLinks(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) ([]Lesson, error)
	Insert(ctx context.Context, tx *gorm.DB, lesson *Lesson) error
	// SetStatus transitions id from one status to another; it reports whether
	// a row actually changed, which gates the prepaid side effects.
	SetStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, from, to Status) (bool, error)
	SetMetadata(ctx context.Context, tx *gorm.DB, id snowflake.ID, metadata datatypes.JSONMap) error
}

type Service interface {
	Create(ctx context.Context, lesson *Lesson) error
	Complete(ctx context.Context, id snowflake.ID) (*TransitionResult, error)
	Uncomplete(ctx context.Context, id snowflake.ID) (*TransitionResult, error)
	Cancel(ctx context.Context, id snowflake.ID) (*TransitionResult, error)
	// CancelCleanup detaches payment links still held by cancelled lessons.
	// Re-running it is a no-op for already-cleaned lessons.
	CancelCleanup(ctx context.Context, tutorID snowflake.ID) (int, error)
}
