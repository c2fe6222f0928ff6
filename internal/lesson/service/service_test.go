package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/clock"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	lessonrepo "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/repository"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	paymentrepo "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/repository"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	prepaidrepo "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/repository"
	prepaidservice "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/service"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	raterepo "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/repository"
	rateservice "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/service"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	studentrepo "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc     lessondomain.Service
	db      *gorm.DB
	node    *snowflake.Node
	tutorID snowflake.ID
	parent  *studentdomain.Parent
	student *studentdomain.Student
	ledger  prepaiddomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&studentdomain.Parent{},
		&studentdomain.Student{},
		&lessondomain.Lesson{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentLesson{},
		&prepaiddomain.Account{},
		&ratedomain.RateSchedule{},
		&ratedomain.SubjectRate{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	students := studentrepo.NewRepository()
	ledger := prepaidservice.NewService(prepaidservice.ServiceParam{
		DB: db, Log: log, GenID: node, Repo: prepaidrepo.NewRepository(),
	})
	rates := rateservice.NewService(rateservice.ServiceParam{
		DB: db, Log: log, GenID: node, Repo: raterepo.NewRepository(),
	})

	f := &fixture{
		db:      db,
		node:    node,
		tutorID: node.Generate(),
		ledger:  ledger,
	}

	f.svc = NewService(ServiceParam{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       clock.SystemClock{},
		Repo:        lessonrepo.NewRepository(),
		StudentRepo: students,
		PaymentRepo: paymentrepo.NewRepository(),
		Ledger:      ledger,
		RateService: rates,
	})

	ctx := context.Background()
	f.parent = &studentdomain.Parent{ID: node.Generate(), Name: "Smith"}
	require.NoError(t, students.InsertParent(ctx, db, f.parent))
	f.student = &studentdomain.Student{ID: node.Generate(), ParentID: f.parent.ID, Name: "Alice Smith"}
	require.NoError(t, students.InsertStudent(ctx, db, f.student))

	require.NoError(t, rates.Save(ctx, ratedomain.Schedule{
		TutorID:                f.tutorID,
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
	}))

	return f
}

func (f *fixture) newLesson(t *testing.T, subject string, durationMin int) *lessondomain.Lesson {
	t.Helper()
	lesson := &lessondomain.Lesson{
		TutorID:     f.tutorID,
		StudentID:   f.student.ID,
		Subject:     subject,
		ScheduledAt: time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC),
		DurationMin: durationMin,
	}
	require.NoError(t, f.svc.Create(context.Background(), lesson))
	return lesson
}

func TestCompleteEmitsInvoiceCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lesson := f.newLesson(t, "piano", 45)

	result, err := f.svc.Complete(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lessondomain.StatusCompleted, result.Status)
	assert.Nil(t, result.PrepaidAccountID)
	require.NotNil(t, result.InvoiceAmount)
	assert.True(t, result.InvoiceAmount.Equal(decimal.NewFromInt(50)), "got %s", result.InvoiceAmount)
	assert.Equal(t, "tier price for 45 min", result.Formula)
}

func TestCompleteConsumesPrepaidSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	month, _ := billmonth.Parse("2026-08")

	_, err := f.ledger.Topup(ctx, f.parent.ID, month, nil, 4)
	require.NoError(t, err)

	lesson := f.newLesson(t, "piano", 45)
	result, err := f.svc.Complete(ctx, lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, result.PrepaidAccountID)
	assert.Nil(t, result.InvoiceAmount)

	accounts, err := f.ledger.ListForParentMonth(ctx, f.parent.ID, month)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, 1, accounts[0].SessionsUsed)

	// Coverage is stamped on the lesson row so invoicing skips it later.
	stored, err := lessonrepo.NewRepository().Get(ctx, f.db, lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PrepaidAccountID())
	assert.Equal(t, accounts[0].ID, *stored.PrepaidAccountID())
}

func TestCompleteUncompleteRoundTripExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	month, _ := billmonth.Parse("2026-08")

	_, err := f.ledger.Topup(ctx, f.parent.ID, month, nil, 4)
	require.NoError(t, err)

	lesson := f.newLesson(t, "piano", 45)
	_, err = f.svc.Complete(ctx, lesson.ID)
	require.NoError(t, err)

	result, err := f.svc.Uncomplete(ctx, lesson.ID)
	require.NoError(t, err)
	assert.True(t, result.PrepaidReleased)

	accounts, err := f.ledger.ListForParentMonth(ctx, f.parent.ID, month)
	require.NoError(t, err)
	assert.Equal(t, 0, accounts[0].SessionsUsed)

	stored, err := lessonrepo.NewRepository().Get(ctx, f.db, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PrepaidAccountID())

	// Second uncomplete must not decrement again.
	_, err = f.svc.Uncomplete(ctx, lesson.ID)
	require.ErrorIs(t, err, lessondomain.ErrInvalidTransition)

	accounts, err = f.ledger.ListForParentMonth(ctx, f.parent.ID, month)
	require.NoError(t, err)
	assert.Equal(t, 0, accounts[0].SessionsUsed)
}

func TestCompleteTwiceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lesson := f.newLesson(t, "math", 60)

	_, err := f.svc.Complete(ctx, lesson.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, lesson.ID)
	require.ErrorIs(t, err, lessondomain.ErrInvalidTransition)
}

func TestCancelRemovesPaymentLinkAndReducesAmountDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payments := paymentrepo.NewRepository()
	month, _ := billmonth.Parse("2026-08")

	lesson := f.newLesson(t, "piano", 45)
	_, err := f.svc.Complete(ctx, lesson.ID)
	require.NoError(t, err)

	payment := &paymentdomain.Payment{
		ID:         f.node.Generate(),
		ParentID:   f.parent.ID,
		Month:      month,
		AmountDue:  decimal.NewFromInt(50),
		AmountPaid: decimal.Zero,
		Status:     paymentdomain.StatusSent,
	}
	require.NoError(t, payments.Insert(ctx, f.db, payment))
	require.NoError(t, payments.InsertLink(ctx, f.db, &paymentdomain.PaymentLesson{
		ID:        f.node.Generate(),
		PaymentID: payment.ID,
		LessonID:  lesson.ID,
		Amount:    decimal.NewFromInt(50),
	}))

	_, err = f.svc.Cancel(ctx, lesson.ID)
	require.NoError(t, err)

	link, err := payments.FindLinkByLesson(ctx, f.db, lesson.ID)
	require.NoError(t, err)
	assert.Nil(t, link)

	stored, err := payments.Get(ctx, f.db, payment.ID)
	require.NoError(t, err)
	assert.True(t, stored.AmountDue.IsZero(), "got %s", stored.AmountDue)

	// Cancelling an already-cancelled lesson is rejected, and the sweep
	// finds nothing left to clean.
	_, err = f.svc.Cancel(ctx, lesson.ID)
	require.ErrorIs(t, err, lessondomain.ErrInvalidTransition)

	cleaned, err := f.svc.CancelCleanup(ctx, f.tutorID)
	require.NoError(t, err)
	assert.Zero(t, cleaned)
}
