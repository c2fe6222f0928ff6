// Package domain models prepaid-session accounting: per parent, per month,
// per subject (or the legacy all-subject account), how many sessions were
// prepaid, consumed, and rolled over from the prior month.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = errors.New("prepaid_account_not_found")
	// ErrUnderflow marks a decrement that was clamped at zero. It signals
	// upstream data drift, not a failure of the current action.
	ErrUnderflow = errors.New("prepaid_underflow")
)

// BillingMode is how a parent's prepaid configuration routes a lesson.
type BillingMode string

const (
	// BillingModeLegacy draws every subject from the single subject-null
	// account.
	BillingModeLegacy BillingMode = "legacy"
	// BillingModePerSubject draws only the configured subjects from their
	// subject-specific accounts; anything else is invoiced normally. The
	// legacy account is never a fallback in this mode.
	BillingModePerSubject BillingMode = "per_subject"
)

// ModeFor derives the billing mode from the parent's prepaid_subjects list.
func ModeFor(prepaidSubjects []string) BillingMode {
	if len(prepaidSubjects) == 0 {
		return BillingModeLegacy
	}
	return BillingModePerSubject
}

type Account struct {
	ID       snowflake.ID    `gorm:"primaryKey" json:"id"`
	ParentID snowflake.ID    `gorm:"not null;uniqueIndex:idx_prepaid_parent_month_subject" json:"parent_id"`
	Month    billmonth.Month `gorm:"type:text;not null;uniqueIndex:idx_prepaid_parent_month_subject" json:"month"`
	// Subject is nil for the legacy all-subject account.
	Subject            *string   `gorm:"type:text;uniqueIndex:idx_prepaid_parent_month_subject" json:"subject,omitempty"`
	SessionsPrepaid    int       `gorm:"not null;default:0" json:"sessions_prepaid"`
	SessionsUsed       int       `gorm:"not null;default:0" json:"sessions_used"`
	SessionsRolledOver int       `gorm:"not null;default:0" json:"sessions_rolled_over"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "prepaid_accounts" }

// Remaining is the number of sessions still available on the account.
func (a Account) Remaining() int {
	return a.SessionsPrepaid + a.SessionsRolledOver - a.SessionsUsed
}

// Select picks the account a lesson in subject should draw from, or nil when
// the lesson is billed normally. accounts is the parent's snapshot for one
// month; prepaidSubjects is the parent's normalized configuration.
//
// A subject-specific account always wins. The legacy subject-null account is
// consulted only in legacy mode: once a per-subject list exists, subjects
// absent from it are never drawn from the legacy account.
func Select(accounts []Account, prepaidSubjects []string, subject string) *Account {
	subject = strings.ToLower(strings.TrimSpace(subject))

	for i := range accounts {
		if accounts[i].Subject != nil && strings.EqualFold(*accounts[i].Subject, subject) {
			return &accounts[i]
		}
	}

	if ModeFor(prepaidSubjects) == BillingModePerSubject {
		return nil
	}

	for i := range accounts {
		if accounts[i].Subject == nil {
			return &accounts[i]
		}
	}
	return nil
}

type Repository interface {
	Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Account, error)
	ListForParentMonth(ctx context.Context, tx *gorm.DB, parentID snowflake.ID, month billmonth.Month) ([]Account, error)
	ListForMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]Account, error)
	Insert(ctx context.Context, tx *gorm.DB, account *Account) error
	// IncrementUsage applies sessions_used = sessions_used + 1 as one atomic
	// conditional update; two racing completions can never lose a count.
	IncrementUsage(ctx context.Context, tx *gorm.DB, id snowflake.ID) error
	// DecrementUsage applies sessions_used = sessions_used - 1 guarded by
	// sessions_used > 0. It reports whether the decrement was clamped.
	DecrementUsage(ctx context.Context, tx *gorm.DB, id snowflake.ID) (clamped bool, err error)
	AddPrepaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, sessions int) error
	AddRolledOver(ctx context.Context, tx *gorm.DB, id snowflake.ID, sessions int) error
}

type Service interface {
	// Consume runs account selection for a completed lesson and, on a match,
	// increments usage inside tx. A nil account means the lesson is invoiced.
	Consume(ctx context.Context, tx *gorm.DB, parentID snowflake.ID, prepaidSubjects []string, month billmonth.Month, subject string) (*Account, error)
	// Release reverses one consumption using the same selection, clamped at
	// zero. It reports which account was touched and whether it clamped.
	Release(ctx context.Context, tx *gorm.DB, parentID snowflake.ID, prepaidSubjects []string, month billmonth.Month, subject string) (*Account, bool, error)
	Topup(ctx context.Context, parentID snowflake.ID, month billmonth.Month, subject *string, sessions int) (*Account, error)
	// Rollover carries every account's unused balance for month into the
	// following month's sessions_rolled_over.
	Rollover(ctx context.Context, parentID snowflake.ID, month billmonth.Month) (int, error)
	ListForParentMonth(ctx context.Context, parentID snowflake.ID, month billmonth.Month) ([]Account, error)
}
