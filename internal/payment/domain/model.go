// Package domain models generated payments and their lesson links. Once a
// payment exists its amount_due/amount_paid are the source of truth; lesson
// prices only estimate what is not yet invoiced.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound  = errors.New("payment_not_found")
	ErrNothingToInvoice = errors.New("nothing_to_invoice")
	ErrInvalidAmount    = errors.New("invalid_payment_amount")
)

type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

type Payment struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	ParentID   snowflake.ID    `gorm:"not null;index" json:"parent_id"`
	Month      billmonth.Month `gorm:"type:text;not null;index" json:"month"`
	AmountDue  decimal.Decimal `gorm:"type:numeric;not null" json:"amount_due"`
	AmountPaid decimal.Decimal `gorm:"type:numeric;not null" json:"amount_paid"`
	Status     Status          `gorm:"type:text;not null;default:draft" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// IsPaid reports whether the payment is fully collected.
func (p Payment) IsPaid() bool {
	return p.Status == StatusPaid || (p.AmountDue.IsPositive() && p.AmountPaid.GreaterThanOrEqual(p.AmountDue))
}

// PaymentLesson links one lesson to the payment that invoices it, at the
// amount resolved when the payment was generated.
type PaymentLesson struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	PaymentID snowflake.ID    `gorm:"not null;index" json:"payment_id"`
	LessonID  snowflake.ID    `gorm:"not null;uniqueIndex" json:"lesson_id"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

func (PaymentLesson) TableName() string { return "payment_lessons" }

type Repository interface {
	Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Payment, error)
	ListByMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]Payment, error)
	ListLinksByMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]PaymentLesson, error)
	FindLinkByLesson(ctx context.Context, tx *gorm.DB, lessonID snowflake.ID) (*PaymentLesson, error)
	Insert(ctx context.Context, tx *gorm.DB, payment *Payment) error
	InsertLink(ctx context.Context, tx *gorm.DB, link *PaymentLesson) error
	DeleteLink(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
	// ReduceAmountDue subtracts amount atomically, used when a linked lesson
	// is cancelled after invoicing.
	ReduceAmountDue(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
	ApplyPayment(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal, status Status) error
}

type Service interface {
	// Generate turns a family's completed-but-unlinked lessons for the month
	// into one payment with per-lesson links.
	Generate(ctx context.Context, tutorID, parentID snowflake.ID, month billmonth.Month) (*Payment, error)
	// Record applies a received amount and derives partial/paid status.
	Record(ctx context.Context, paymentID snowflake.ID, amount decimal.Decimal) (*Payment, error)
	ListByMonth(ctx context.Context, month billmonth.Month) ([]Payment, error)
}
