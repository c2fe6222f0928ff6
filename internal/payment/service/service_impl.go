package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/clock"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/pricing"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	LessonRepo  lessondomain.Repository
	StudentRepo studentdomain.Repository
	RateService ratedomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	lessonRepo  lessondomain.Repository
	studentRepo studentdomain.Repository
	rateService ratedomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		lessonRepo:  p.LessonRepo,
		studentRepo: p.StudentRepo,
		rateService: p.RateService,
	}
}

func (s *Service) Generate(ctx context.Context, tutorID, parentID snowflake.ID, month billmonth.Month) (*paymentdomain.Payment, error) {
	schedule, err := s.rateService.Schedule(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	var payment *paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		students, err := s.studentRepo.ListStudents(ctx, tx)
		if err != nil {
			return err
		}
		familyStudents := make(map[snowflake.ID]struct{})
		for _, st := range students {
			if st.ParentID == parentID {
				familyStudents[st.ID] = struct{}{}
			}
		}

		lessons, err := s.lessonRepo.ListByMonth(ctx, tx, tutorID, month)
		if err != nil {
			return err
		}

		now := s.clock.Now(ctx)
		total := decimal.Zero
		var links []*paymentdomain.PaymentLesson

		for _, lesson := range lessons {
			if lesson.Status != lessondomain.StatusCompleted {
				continue
			}
			if _, ok := familyStudents[lesson.StudentID]; !ok {
				continue
			}
			// Lessons covered by a prepaid account are already paid for.
			if lesson.PrepaidAccountID() != nil {
				continue
			}

			existing, err := s.repo.FindLinkByLesson(ctx, tx, lesson.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}

			quote, err := pricing.Resolve(lesson, *schedule, lesson.SessionID != nil)
			if err != nil {
				return fmt.Errorf("pricing lesson %s: %w", lesson.ID, err)
			}

			total = total.Add(quote.Amount)
			links = append(links, &paymentdomain.PaymentLesson{
				ID:        s.genID.Generate(),
				LessonID:  lesson.ID,
				Amount:    quote.Amount,
				CreatedAt: now,
			})
		}

		if len(links) == 0 {
			return paymentdomain.ErrNothingToInvoice
		}

		payment = &paymentdomain.Payment{
			ID:         s.genID.Generate(),
			ParentID:   parentID,
			Month:      month,
			AmountDue:  total,
			AmountPaid: decimal.Zero,
			Status:     paymentdomain.StatusSent,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}
		for _, link := range links {
			link.PaymentID = payment.ID
			if err := s.repo.InsertLink(ctx, tx, link); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment generated",
		zap.Stringer("payment_id", payment.ID),
		zap.Stringer("parent_id", parentID),
		zap.String("month", month.String()),
		zap.String("amount_due", payment.AmountDue.String()),
	)
	return payment, nil
}

func (s *Service) ListByMonth(ctx context.Context, month billmonth.Month) ([]paymentdomain.Payment, error) {
	return s.repo.ListByMonth(ctx, s.db.WithContext(ctx), month)
}

func (s *Service) Record(ctx context.Context, paymentID snowflake.ID, amount decimal.Decimal) (*paymentdomain.Payment, error) {
	if !amount.IsPositive() {
		return nil, paymentdomain.ErrInvalidAmount
	}

	var out *paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.Get(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return paymentdomain.ErrPaymentNotFound
		}

		newPaid := payment.AmountPaid.Add(amount)
		status := paymentdomain.StatusPartial
		if newPaid.GreaterThanOrEqual(payment.AmountDue) {
			status = paymentdomain.StatusPaid
		}

		if err := s.repo.ApplyPayment(ctx, tx, paymentID, amount, status); err != nil {
			return err
		}

		payment.AmountPaid = newPaid
		payment.Status = status
		out = payment
		return nil
	})
	return out, err
}
