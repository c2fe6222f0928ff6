package service

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMonth = billmonth.Month{Year: 2026, Month: time.August}

func testSchedule() ratedomain.Schedule {
	return ratedomain.Schedule{
		DefaultRate:            decimal.NewFromInt(45),
		DefaultBaseDurationMin: 60,
		CombinedSessionRate:    decimal.NewFromInt(40),
		SubjectRates: map[string]ratedomain.SubjectRateConfig{
			"piano": {
				Rate:            decimal.NewFromInt(35),
				BaseDurationMin: 30,
				DurationPrices:  ratedomain.TierTable{ratedomain.Duration45: decimal.NewFromInt(50)},
			},
		},
	}
}

func at(day, hour int) time.Time {
	return time.Date(2026, 8, day, hour, 0, 0, 0, time.UTC)
}

func baseInput() summarydomain.Input {
	return summarydomain.Input{
		Month:    testMonth,
		Schedule: testSchedule(),
		Parents: []studentdomain.Parent{
			{ID: 1, Name: "Smith"},
			{ID: 2, Name: "Young"},
		},
		Students: []studentdomain.Student{
			{ID: 10, ParentID: 1, Name: "Alice Smith"},
			{ID: 20, ParentID: 2, Name: "Ben Young"},
		},
	}
}

func TestAggregateBucketsAndAmounts(t *testing.T) {
	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
		{ID: 101, StudentID: 10, Subject: "math", ScheduledAt: at(5, 16), DurationMin: 60, Status: lessondomain.StatusScheduled},
		{ID: 102, StudentID: 10, Subject: "piano", ScheduledAt: at(7, 15), DurationMin: 30, Status: lessondomain.StatusCancelled},
		{ID: 200, StudentID: 20, Subject: "math", ScheduledAt: at(4, 10), DurationMin: 60, Status: lessondomain.StatusCompleted},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, got.Families, 2)

	smith := got.Families[0]
	assert.Equal(t, "Smith", smith.ParentName)
	assert.Equal(t, 1, smith.Buckets.CompletedCount)
	assert.Equal(t, 1, smith.Buckets.ScheduledCount)
	assert.Equal(t, 1, smith.Buckets.CancelledCount)
	// 50 (tier) + 45 (scheduled math); cancelled contributes nothing.
	assert.True(t, smith.Amounts.ExpectedAmount.Equal(decimal.NewFromInt(95)), "got %s", smith.Amounts.ExpectedAmount)
	assert.True(t, smith.Amounts.BillableAmount.Equal(decimal.NewFromInt(50)), "got %s", smith.Amounts.BillableAmount)

	young := got.Families[1]
	assert.True(t, young.Amounts.ExpectedAmount.Equal(decimal.NewFromInt(45)))

	// Totals sum family fields exactly.
	assert.True(t, got.Totals.Amounts.ExpectedAmount.Equal(
		smith.Amounts.ExpectedAmount.Add(young.Amounts.ExpectedAmount)))
	assert.Equal(t, 4, got.Totals.Buckets.TotalLessons())
	assert.Equal(t, 2, got.Totals.Buckets.CompletedCount)
}

func TestAggregateSplitsCompletedByPaymentLinkage(t *testing.T) {
	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
		{ID: 101, StudentID: 10, Subject: "piano", ScheduledAt: at(10, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
		{ID: 102, StudentID: 10, Subject: "piano", ScheduledAt: at(17, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
	}
	in.Payments = []paymentdomain.Payment{
		{ID: 500, ParentID: 1, Month: testMonth, AmountDue: decimal.NewFromInt(50), AmountPaid: decimal.Zero, Status: paymentdomain.StatusSent},
		{ID: 501, ParentID: 1, Month: testMonth, AmountDue: decimal.NewFromInt(50), AmountPaid: decimal.NewFromInt(50), Status: paymentdomain.StatusPaid},
	}
	in.PaymentLessons = []paymentdomain.PaymentLesson{
		{ID: 600, PaymentID: 500, LessonID: 101, Amount: decimal.NewFromInt(50)},
		{ID: 601, PaymentID: 501, LessonID: 102, Amount: decimal.NewFromInt(50)},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, got.Families, 1)

	smith := got.Families[0]
	assert.Equal(t, 1, smith.Buckets.CompletedCount, "unlinked")
	assert.Equal(t, 1, smith.Buckets.InvoicedCount, "linked to open payment")
	assert.Equal(t, 1, smith.Buckets.PaidCount, "linked to paid payment")

	// Only the unlinked lesson is ready to bill.
	assert.True(t, smith.Amounts.BillableAmount.Equal(decimal.NewFromInt(50)))
	// Invoiced/collected come from the payment records.
	assert.True(t, smith.Amounts.InvoicedAmount.Equal(decimal.NewFromInt(100)), "got %s", smith.Amounts.InvoicedAmount)
	assert.True(t, smith.Amounts.CollectedAmount.Equal(decimal.NewFromInt(50)))

	states := map[snowflake.ID]summarydomain.PaymentState{}
	for _, d := range smith.Lessons {
		states[d.LessonID] = d.PaymentState
	}
	assert.Equal(t, summarydomain.PaymentStateUnbilled, states[100])
	assert.Equal(t, summarydomain.PaymentStateInvoiced, states[101])
	assert.Equal(t, summarydomain.PaymentStatePaid, states[102])
}

func TestAggregatePrepaidCoveredLessons(t *testing.T) {
	covered := lessondomain.Lesson{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 45, Status: lessondomain.StatusCompleted}
	covered.MarkPrepaid(snowflake.ID(42))

	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		covered,
		{ID: 101, StudentID: 10, Subject: "piano", ScheduledAt: at(10, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, got.Families, 1)

	smith := got.Families[0]
	assert.Equal(t, 1, smith.Buckets.PrepaidCount)
	assert.Equal(t, 1, smith.Buckets.CompletedCount)

	// The covered lesson was paid for with the session pack, so only the
	// other completion carries dollars.
	assert.True(t, smith.Amounts.ExpectedAmount.Equal(decimal.NewFromInt(50)), "got %s", smith.Amounts.ExpectedAmount)
	assert.True(t, smith.Amounts.BillableAmount.Equal(decimal.NewFromInt(50)), "got %s", smith.Amounts.BillableAmount)

	states := map[snowflake.ID]summarydomain.PaymentState{}
	for _, d := range smith.Lessons {
		states[d.LessonID] = d.PaymentState
	}
	assert.Equal(t, summarydomain.PaymentStatePrepaid, states[100])
	assert.Equal(t, summarydomain.PaymentStateUnbilled, states[101])
}

func TestAggregateCombinedSessions(t *testing.T) {
	session := snowflake.ID(999)
	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 30, Status: lessondomain.StatusCompleted, SessionID: &session},
		{ID: 200, StudentID: 20, Subject: "math", ScheduledAt: at(3, 15), DurationMin: 90, Status: lessondomain.StatusCompleted, SessionID: &session},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, got.Families, 2)

	for _, family := range got.Families {
		require.Len(t, family.Lessons, 1)
		assert.True(t, family.Lessons[0].Combined)
		// Flat combined rate regardless of duration and subject.
		assert.True(t, family.Lessons[0].Amount.Equal(decimal.NewFromInt(40)), "got %s", family.Lessons[0].Amount)
		assert.Equal(t, 1, family.Buckets.CombinedSessionCount)
	}
	assert.Equal(t, 2, got.Totals.Buckets.CombinedSessionCount)
}

func TestAggregateSkipsOrphanedLessons(t *testing.T) {
	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 45, Status: lessondomain.StatusCompleted},
		{ID: 999, StudentID: 777, Subject: "math", ScheduledAt: at(4, 15), DurationMin: 60, Status: lessondomain.StatusCompleted},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SkippedLessons)
	assert.Equal(t, 1, got.Totals.Buckets.TotalLessons())
}

func TestAggregateEmptyMonth(t *testing.T) {
	in := baseInput()

	got, err := Aggregate(in)
	require.NoError(t, err)
	assert.Empty(t, got.Families)
	assert.True(t, got.Totals.Amounts.ExpectedAmount.IsZero())
}

func TestAggregateLessonOrderWithinFamily(t *testing.T) {
	in := baseInput()
	in.Lessons = []lessondomain.Lesson{
		{ID: 101, StudentID: 10, Subject: "math", ScheduledAt: at(20, 10), DurationMin: 60, Status: lessondomain.StatusScheduled},
		{ID: 100, StudentID: 10, Subject: "piano", ScheduledAt: at(3, 15), DurationMin: 45, Status: lessondomain.StatusScheduled},
	}

	got, err := Aggregate(in)
	require.NoError(t, err)
	require.Len(t, got.Families, 1)
	require.Len(t, got.Families[0].Lessons, 2)
	assert.Equal(t, snowflake.ID(100), got.Families[0].Lessons[0].LessonID)
	assert.Equal(t, snowflake.ID(101), got.Families[0].Lessons[1].LessonID)
}
