// Package pricing derives the billable amount for one lesson from a tutor's
// rate schedule. Resolution is pure: callers hand in snapshots and get back a
// quote, no I/O. Amounts stay unrounded decimals; two-place formatting is an
// export concern.
package pricing

import (
	"errors"
	"fmt"

	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	"github.com/shopspring/decimal"
)

// ErrInvalidRateInput rejects non-positive durations and negative rates
// before any amount is computed.
var ErrInvalidRateInput = errors.New("invalid_rate_input")

// Quote is the resolved price for one lesson plus the formula that produced
// it, kept for audit display on reports.
type Quote struct {
	Amount         decimal.Decimal
	Formula        string
	IsExplicitTier bool
}

// Resolve prices a single lesson. Rules apply in strict priority order:
// manual override, cancellation (zero), combined-session flat rate, explicit
// duration-tier hit, then the linear rate/base-duration fallback.
func Resolve(lesson lessondomain.Lesson, schedule ratedomain.Schedule, combined bool) (Quote, error) {
	if lesson.OverrideAmount != nil {
		return Quote{Amount: *lesson.OverrideAmount, Formula: "manual override"}, nil
	}

	if lesson.Status == lessondomain.StatusCancelled {
		return Quote{Amount: decimal.Zero, Formula: "cancelled"}, nil
	}

	if lesson.DurationMin <= 0 {
		return Quote{}, fmt.Errorf("%w: duration %d min", ErrInvalidRateInput, lesson.DurationMin)
	}

	if combined {
		if schedule.CombinedSessionRate.IsNegative() {
			return Quote{}, fmt.Errorf("%w: negative combined session rate", ErrInvalidRateInput)
		}
		return Quote{Amount: schedule.CombinedSessionRate, Formula: "combined session rate"}, nil
	}

	cfg := schedule.ConfigFor(lesson.Subject)
	if cfg.Rate.IsNegative() {
		return Quote{}, fmt.Errorf("%w: negative rate for subject %q", ErrInvalidRateInput, lesson.Subject)
	}
	if cfg.BaseDurationMin <= 0 {
		return Quote{}, fmt.Errorf("%w: base duration %d min", ErrInvalidRateInput, cfg.BaseDurationMin)
	}

	if tier, ok := tierPrice(cfg, lesson.DurationMin); ok {
		return Quote{
			Amount:         tier,
			Formula:        fmt.Sprintf("tier price for %d min", lesson.DurationMin),
			IsExplicitTier: true,
		}, nil
	}

	// Multiply before dividing so terminating ratios stay exact.
	amount := cfg.Rate.
		Mul(decimal.NewFromInt(int64(lesson.DurationMin))).
		Div(decimal.NewFromInt(int64(cfg.BaseDurationMin)))

	formula := fmt.Sprintf("$%s per %d min × (%d/%d)",
		cfg.Rate.String(), cfg.BaseDurationMin, lesson.DurationMin, cfg.BaseDurationMin)

	return Quote{Amount: amount, Formula: formula}, nil
}

func tierPrice(cfg ratedomain.SubjectRateConfig, durationMin int) (decimal.Decimal, bool) {
	if len(cfg.DurationPrices) == 0 {
		return decimal.Decimal{}, false
	}
	d, err := ratedomain.ParseDuration(durationMin)
	if err != nil {
		return decimal.Decimal{}, false
	}
	price, ok := cfg.DurationPrices[d]
	if !ok || !price.IsPositive() {
		return decimal.Decimal{}, false
	}
	return price, true
}
