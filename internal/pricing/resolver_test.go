package pricing

import (
	"testing"

	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pianoSchedule() ratedomain.Schedule {
	return ratedomain.Schedule{
		DefaultRate:            decimal.NewFromInt(45),
		DefaultBaseDurationMin: 60,
		CombinedSessionRate:    decimal.NewFromInt(40),
		SubjectRates: map[string]ratedomain.SubjectRateConfig{
			"piano": {
				Rate:            decimal.NewFromInt(35),
				BaseDurationMin: 30,
				DurationPrices: ratedomain.TierTable{
					ratedomain.Duration45: decimal.NewFromInt(50),
				},
			},
		},
	}
}

func TestResolveExplicitTierWins(t *testing.T) {
	lesson := lessondomain.Lesson{Subject: "piano", DurationMin: 45, Status: lessondomain.StatusCompleted}

	quote, err := Resolve(lesson, pianoSchedule(), false)
	require.NoError(t, err)
	assert.True(t, quote.IsExplicitTier)
	assert.True(t, quote.Amount.Equal(decimal.NewFromInt(50)), "got %s", quote.Amount)
	assert.Equal(t, "tier price for 45 min", quote.Formula)
}

func TestResolveLinearFallback(t *testing.T) {
	lesson := lessondomain.Lesson{Subject: "piano", DurationMin: 60, Status: lessondomain.StatusCompleted}

	quote, err := Resolve(lesson, pianoSchedule(), false)
	require.NoError(t, err)
	assert.False(t, quote.IsExplicitTier)
	// (60/30) * 35 = 70, exact.
	assert.True(t, quote.Amount.Equal(decimal.NewFromInt(70)), "got %s", quote.Amount)
	assert.Equal(t, "$35 per 30 min × (60/30)", quote.Formula)
}

func TestResolveDefaultRateForUnknownSubject(t *testing.T) {
	lesson := lessondomain.Lesson{Subject: "math", DurationMin: 90, Status: lessondomain.StatusScheduled}

	quote, err := Resolve(lesson, pianoSchedule(), false)
	require.NoError(t, err)
	// (90/60) * 45 = 67.5
	assert.True(t, quote.Amount.Equal(decimal.RequireFromString("67.5")), "got %s", quote.Amount)
}

func TestResolveCancelledIsZero(t *testing.T) {
	for _, subject := range []string{"piano", "math", ""} {
		lesson := lessondomain.Lesson{Subject: subject, DurationMin: 45, Status: lessondomain.StatusCancelled}
		quote, err := Resolve(lesson, pianoSchedule(), false)
		require.NoError(t, err)
		assert.True(t, quote.Amount.IsZero())
	}
}

func TestResolveCombinedFlatRateIgnoresDurationAndSubject(t *testing.T) {
	for _, tc := range []struct {
		subject  string
		duration int
	}{
		{"piano", 30},
		{"math", 90},
	} {
		lesson := lessondomain.Lesson{Subject: tc.subject, DurationMin: tc.duration, Status: lessondomain.StatusCompleted}
		quote, err := Resolve(lesson, pianoSchedule(), true)
		require.NoError(t, err)
		assert.True(t, quote.Amount.Equal(decimal.NewFromInt(40)), "got %s", quote.Amount)
		assert.Equal(t, "combined session rate", quote.Formula)
	}
}

func TestResolveManualOverrideWins(t *testing.T) {
	override := decimal.RequireFromString("12.34")
	lesson := lessondomain.Lesson{
		Subject:        "piano",
		DurationMin:    45,
		Status:         lessondomain.StatusCompleted,
		OverrideAmount: &override,
	}

	// Override beats the tier table and the combined flag.
	quote, err := Resolve(lesson, pianoSchedule(), true)
	require.NoError(t, err)
	assert.True(t, quote.Amount.Equal(override))
	assert.Equal(t, "manual override", quote.Formula)
	assert.False(t, quote.IsExplicitTier)
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	lesson := lessondomain.Lesson{Subject: "piano", DurationMin: 0, Status: lessondomain.StatusScheduled}
	_, err := Resolve(lesson, pianoSchedule(), false)
	require.ErrorIs(t, err, ErrInvalidRateInput)

	sched := pianoSchedule()
	sched.SubjectRates["piano"] = ratedomain.SubjectRateConfig{
		Rate:            decimal.NewFromInt(-5),
		BaseDurationMin: 30,
	}
	lesson.DurationMin = 30
	_, err = Resolve(lesson, sched, false)
	require.ErrorIs(t, err, ErrInvalidRateInput)
}

func TestResolveNoMidCalculationRounding(t *testing.T) {
	sched := ratedomain.Schedule{
		DefaultRate:            decimal.RequireFromString("33.33"),
		DefaultBaseDurationMin: 60,
		CombinedSessionRate:    decimal.NewFromInt(40),
	}
	lesson := lessondomain.Lesson{Subject: "violin", DurationMin: 45, Status: lessondomain.StatusCompleted}

	quote, err := Resolve(lesson, sched, false)
	require.NoError(t, err)
	// 33.33 * 45 / 60 = 24.9975; the resolver must not round to 25.00.
	assert.True(t, quote.Amount.Equal(decimal.RequireFromString("24.9975")), "got %s", quote.Amount)
}
