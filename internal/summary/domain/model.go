// Package domain defines the derived monthly-summary types. Summaries are
// recomputed per request from snapshots and never persisted.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	"github.com/shopspring/decimal"
)

// PaymentState classifies one lesson's billing position on the report.
type PaymentState string

const (
	PaymentStateUnbilled  PaymentState = "unbilled"
	PaymentStateInvoiced  PaymentState = "invoiced"
	PaymentStatePaid      PaymentState = "paid"
	PaymentStateCancelled PaymentState = "cancelled"
	PaymentStateScheduled PaymentState = "scheduled"
	PaymentStatePrepaid   PaymentState = "prepaid"
)

// LessonDetail is one priced lesson row on the report.
type LessonDetail struct {
	LessonID     snowflake.ID    `json:"lesson_id"`
	StudentName  string          `json:"student_name"`
	Subject      string          `json:"subject"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	DurationMin  int             `json:"duration_min"`
	Amount       decimal.Decimal `json:"amount"`
	Formula      string          `json:"formula"`
	PaymentState PaymentState    `json:"payment_state"`
	Combined     bool            `json:"combined"`
}

// Buckets are the per-status lesson counts. Completed lessons split four
// ways: covered by a prepaid account, not yet linked to a payment, linked to
// an open payment, linked to a fully paid one.
type Buckets struct {
	ScheduledCount       int `json:"scheduled_count"`
	CompletedCount       int `json:"completed_count"`
	PrepaidCount         int `json:"prepaid_count"`
	InvoicedCount        int `json:"invoiced_count"`
	PaidCount            int `json:"paid_count"`
	CancelledCount       int `json:"cancelled_count"`
	CombinedSessionCount int `json:"combined_session_count"`
}

func (b *Buckets) Add(other Buckets) {
	b.ScheduledCount += other.ScheduledCount
	b.CompletedCount += other.CompletedCount
	b.PrepaidCount += other.PrepaidCount
	b.InvoicedCount += other.InvoicedCount
	b.PaidCount += other.PaidCount
	b.CancelledCount += other.CancelledCount
	b.CombinedSessionCount += other.CombinedSessionCount
}

func (b Buckets) TotalLessons() int {
	return b.ScheduledCount + b.CompletedCount + b.PrepaidCount + b.InvoicedCount + b.PaidCount + b.CancelledCount
}

// Amounts are the money fields of a family or global summary. Expected and
// billable come from resolved lesson prices; invoiced and collected come
// from payment records, the source of truth once a payment exists.
type Amounts struct {
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	BillableAmount  decimal.Decimal `json:"billable_amount"`
	InvoicedAmount  decimal.Decimal `json:"invoiced_amount"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
}

func (a *Amounts) Add(other Amounts) {
	a.ExpectedAmount = a.ExpectedAmount.Add(other.ExpectedAmount)
	a.BillableAmount = a.BillableAmount.Add(other.BillableAmount)
	a.InvoicedAmount = a.InvoicedAmount.Add(other.InvoicedAmount)
	a.CollectedAmount = a.CollectedAmount.Add(other.CollectedAmount)
}

type FamilyLessonSummary struct {
	ParentID   snowflake.ID   `json:"parent_id"`
	ParentName string         `json:"parent_name"`
	Buckets    Buckets        `json:"buckets"`
	Amounts    Amounts        `json:"amounts"`
	Lessons    []LessonDetail `json:"lessons"`
}

type Totals struct {
	Buckets Buckets `json:"buckets"`
	Amounts Amounts `json:"amounts"`
}

type MonthlySummary struct {
	Month    billmonth.Month       `json:"month"`
	Families []FamilyLessonSummary `json:"families"`
	Totals   Totals                `json:"totals"`
	// SkippedLessons counts lessons dropped because their student record is
	// gone; an observable anomaly, not a fault.
	SkippedLessons int `json:"skipped_lessons"`
}

// Input is the full snapshot the aggregator consumes. Everything is fetched
// up front by the caller; aggregation itself performs no queries.
type Input struct {
	Month          billmonth.Month
	Lessons        []lessondomain.Lesson
	Students       []studentdomain.Student
	Parents        []studentdomain.Parent
	Schedule       ratedomain.Schedule
	Payments       []paymentdomain.Payment
	PaymentLessons []paymentdomain.PaymentLesson
}

type Service interface {
	MonthlySummary(ctx context.Context, tutorID snowflake.ID, month billmonth.Month) (*MonthlySummary, error)
}
