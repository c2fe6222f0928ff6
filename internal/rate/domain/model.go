// Package domain models a tutor's configurable rate schedule: a default
// rate over a base duration, optional per-subject rates, explicit
// duration-tier price tables, and a flat combined-session rate.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrScheduleNotFound    = errors.New("rate_schedule_not_found")
	ErrInvalidAmount       = errors.New("invalid_rate_amount")
	ErrInvalidBaseDuration = errors.New("invalid_base_duration")
	ErrUnsupportedDuration = errors.New("unsupported_tier_duration")
)

// Duration is the closed set of lesson lengths an explicit tier price may be
// keyed by. Tier tables are validated against this set when a schedule is
// saved, so a stray "45" vs 45 key can never reach the resolver.
type Duration int

const (
	Duration15  Duration = 15
	Duration30  Duration = 30
	Duration45  Duration = 45
	Duration60  Duration = 60
	Duration75  Duration = 75
	Duration90  Duration = 90
	Duration120 Duration = 120
)

var supportedDurations = map[Duration]struct{}{
	Duration15: {}, Duration30: {}, Duration45: {}, Duration60: {},
	Duration75: {}, Duration90: {}, Duration120: {},
}

func ParseDuration(minutes int) (Duration, error) {
	d := Duration(minutes)
	if _, ok := supportedDurations[d]; !ok {
		return 0, ErrUnsupportedDuration
	}
	return d, nil
}

// TierTable maps an exact lesson duration to its authoritative price.
type TierTable map[Duration]decimal.Decimal

// Schedule is the in-memory snapshot the pricing engine consumes. It is
// assembled from the persisted rows by the rate service; the engine never
// queries for it.
type Schedule struct {
	TutorID                snowflake.ID                 `json:"tutor_id"`
	DefaultRate            decimal.Decimal              `json:"default_rate"`
	DefaultBaseDurationMin int                          `json:"default_base_duration_min"`
	CombinedSessionRate    decimal.Decimal              `json:"combined_session_rate"`
	SubjectRates           map[string]SubjectRateConfig `json:"subject_rates"`
}

type SubjectRateConfig struct {
	Rate            decimal.Decimal `json:"rate"`
	BaseDurationMin int             `json:"base_duration_min"`
	DurationPrices  TierTable       `json:"duration_prices,omitempty"`
}

// ConfigFor resolves the rate config for a subject, falling back to the
// schedule defaults when the subject has no entry.
func (s Schedule) ConfigFor(subject string) SubjectRateConfig {
	if cfg, ok := s.SubjectRates[subject]; ok {
		return cfg
	}
	return SubjectRateConfig{
		Rate:            s.DefaultRate,
		BaseDurationMin: s.DefaultBaseDurationMin,
	}
}

// Validate enforces the configuration-load invariants: strictly positive
// amounts, positive base durations, tier keys drawn from the supported set.
func (s Schedule) Validate() error {
	if !s.DefaultRate.IsPositive() {
		return ErrInvalidAmount
	}
	if s.DefaultBaseDurationMin <= 0 {
		return ErrInvalidBaseDuration
	}
	if !s.CombinedSessionRate.IsPositive() {
		return ErrInvalidAmount
	}
	for _, cfg := range s.SubjectRates {
		if !cfg.Rate.IsPositive() {
			return ErrInvalidAmount
		}
		if cfg.BaseDurationMin <= 0 {
			return ErrInvalidBaseDuration
		}
		for d, price := range cfg.DurationPrices {
			if _, err := ParseDuration(int(d)); err != nil {
				return err
			}
			if !price.IsPositive() {
				return ErrInvalidAmount
			}
		}
	}
	return nil
}

// RateSchedule is the persisted per-tutor header row.
type RateSchedule struct {
	ID                     snowflake.ID    `gorm:"primaryKey" json:"id"`
	TutorID                snowflake.ID    `gorm:"not null;uniqueIndex" json:"tutor_id"`
	DefaultRate            decimal.Decimal `gorm:"type:numeric;not null" json:"default_rate"`
	DefaultBaseDurationMin int             `gorm:"not null" json:"default_base_duration_min"`
	CombinedSessionRate    decimal.Decimal `gorm:"type:numeric;not null" json:"combined_session_rate"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

func (RateSchedule) TableName() string { return "rate_schedules" }

// SubjectRate is one persisted per-subject override, tier table included.
type SubjectRate struct {
	ID              snowflake.ID                   `gorm:"primaryKey" json:"id"`
	TutorID         snowflake.ID                   `gorm:"not null;uniqueIndex:idx_subject_rates_tutor_subject" json:"tutor_id"`
	Subject         string                         `gorm:"type:text;not null;uniqueIndex:idx_subject_rates_tutor_subject" json:"subject"`
	Rate            decimal.Decimal                `gorm:"type:numeric;not null" json:"rate"`
	BaseDurationMin int                            `gorm:"not null" json:"base_duration_min"`
	DurationPrices  datatypes.JSONType[TierTable]  `json:"duration_prices"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

func (SubjectRate) TableName() string { return "subject_rates" }

type Repository interface {
	GetSchedule(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) (*RateSchedule, error)
	ListSubjectRates(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) ([]SubjectRate, error)
	UpsertSchedule(ctx context.Context, tx *gorm.DB, schedule *RateSchedule) error
	UpsertSubjectRate(ctx context.Context, tx *gorm.DB, rate *SubjectRate) error
	DeleteSubjectRates(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID, keep []string) error
}

type Service interface {
	// Schedule assembles and validates the tutor's full snapshot.
	Schedule(ctx context.Context, tutorID snowflake.ID) (*Schedule, error)
	// Save replaces the tutor's schedule after validation.
	Save(ctx context.Context, schedule Schedule) error
}
