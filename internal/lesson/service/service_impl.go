package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/clock"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/pricing"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
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
	Repo        lessondomain.Repository
	StudentRepo studentdomain.Repository
	PaymentRepo paymentdomain.Repository
	Ledger      prepaiddomain.Service
	RateService ratedomain.Service
	Metrics     *observability.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        lessondomain.Repository
	studentRepo studentdomain.Repository
	paymentRepo paymentdomain.Repository
	ledger      prepaiddomain.Service
	rateService ratedomain.Service
	metrics     *observability.Metrics
}

func NewService(p ServiceParam) lessondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("lesson.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		studentRepo: p.StudentRepo,
		paymentRepo: p.PaymentRepo,
		ledger:      p.Ledger,
		rateService: p.RateService,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, lesson *lessondomain.Lesson) error {
	if lesson.DurationMin <= 0 {
		return lessondomain.ErrInvalidDuration
	}
	lesson.Subject = strings.ToLower(strings.TrimSpace(lesson.Subject))
	if lesson.ID == 0 {
		lesson.ID = s.genID.Generate()
	}
	if lesson.Status == "" {
		lesson.Status = lessondomain.StatusScheduled
	}
	now := s.clock.Now(ctx)
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	return s.repo.Insert(ctx, s.db, lesson)
}

// Complete marks a scheduled lesson completed. Selecting a prepaid account
// and incrementing its usage happen inside the same transaction as the
// status flip: the lesson can never end up completed with its prepaid
// consumption dropped, or vice versa.
func (s *Service) Complete(ctx context.Context, id snowflake.ID) (*lessondomain.TransitionResult, error) {
	var result *lessondomain.TransitionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, parent, err := s.lessonWithParent(ctx, tx, id)
		if err != nil {
			return err
		}

		changed, err := s.repo.SetStatus(ctx, tx, id, lessondomain.StatusScheduled, lessondomain.StatusCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return lessondomain.ErrInvalidTransition
		}

		result = &lessondomain.TransitionResult{LessonID: id, Status: lessondomain.StatusCompleted}

		account, err := s.ledger.Consume(ctx, tx, parent.ID, parent.NormalizedPrepaidSubjects(), lesson.Month(), lesson.Subject)
		if err != nil {
			return err
		}
		if account != nil {
			// Persist coverage on the lesson itself so payment generation and
			// the monthly summary can tell prepaid completions from billable
			// ones.
			lesson.MarkPrepaid(account.ID)
			if err := s.repo.SetMetadata(ctx, tx, id, lesson.Metadata); err != nil {
				return err
			}
			result.PrepaidAccountID = &account.ID
			return nil
		}

		schedule, err := s.rateService.Schedule(ctx, lesson.TutorID)
		if err != nil {
			return err
		}
		quote, err := pricing.Resolve(*lesson, *schedule, lesson.SessionID != nil)
		if err != nil {
			return fmt.Errorf("pricing lesson %s: %w", id, err)
		}
		if s.metrics != nil {
			s.metrics.PricesResolved.Inc()
		}

		result.InvoiceAmount = &quote.Amount
		result.Formula = quote.Formula
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Uncomplete reverts a completion. The status guard makes the reversal
// exactly-once: a second call finds the lesson already scheduled and fails
// with ErrInvalidTransition before any ledger decrement runs.
func (s *Service) Uncomplete(ctx context.Context, id snowflake.ID) (*lessondomain.TransitionResult, error) {
	var result *lessondomain.TransitionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, parent, err := s.lessonWithParent(ctx, tx, id)
		if err != nil {
			return err
		}

		changed, err := s.repo.SetStatus(ctx, tx, id, lessondomain.StatusCompleted, lessondomain.StatusScheduled)
		if err != nil {
			return err
		}
		if !changed {
			return lessondomain.ErrInvalidTransition
		}

		result = &lessondomain.TransitionResult{LessonID: id, Status: lessondomain.StatusScheduled}

		account, clamped, err := s.ledger.Release(ctx, tx, parent.ID, parent.NormalizedPrepaidSubjects(), lesson.Month(), lesson.Subject)
		if err != nil {
			return err
		}
		if account != nil && !clamped {
			result.PrepaidAccountID = &account.ID
			result.PrepaidReleased = true
		}
		if lesson.ClearPrepaid() {
			if err := s.repo.SetMetadata(ctx, tx, id, lesson.Metadata); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel moves a lesson to cancelled from either live status. An existing
// payment link is removed and the payment's amount_due reduced by the linked
// amount; a completed lesson also gives back its prepaid slot.
func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*lessondomain.TransitionResult, error) {
	var result *lessondomain.TransitionResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lesson, parent, err := s.lessonWithParent(ctx, tx, id)
		if err != nil {
			return err
		}

		wasCompleted := lesson.Status == lessondomain.StatusCompleted
		changed, err := s.repo.SetStatus(ctx, tx, id, lesson.Status, lessondomain.StatusCancelled)
		if err != nil {
			return err
		}
		if !changed || lesson.Status == lessondomain.StatusCancelled {
			return lessondomain.ErrInvalidTransition
		}

		result = &lessondomain.TransitionResult{LessonID: id, Status: lessondomain.StatusCancelled}

		if wasCompleted {
			if _, _, err := s.ledger.Release(ctx, tx, parent.ID, parent.NormalizedPrepaidSubjects(), lesson.Month(), lesson.Subject); err != nil {
				return err
			}
			if lesson.ClearPrepaid() {
				if err := s.repo.SetMetadata(ctx, tx, id, lesson.Metadata); err != nil {
					return err
				}
			}
		}

		return s.unlinkPayment(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelCleanup sweeps cancelled lessons that still hold a payment link.
// Each unlink is a no-op once done, so an interrupted sweep can simply be
// re-run.
func (s *Service) CancelCleanup(ctx context.Context, tutorID snowflake.ID) (int, error) {
	cleaned := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessons, err := s.repo.ListCancelledWithLinks(ctx, tx, tutorID)
		if err != nil {
			return err
		}
		for _, lesson := range lessons {
			if err := s.unlinkPayment(ctx, tx, lesson.ID); err != nil {
				return err
			}
			cleaned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if cleaned > 0 {
		s.log.Info("cancelled-lesson payment links cleaned", zap.Int("count", cleaned))
	}
	return cleaned, nil
}

func (s *Service) unlinkPayment(ctx context.Context, tx *gorm.DB, lessonID snowflake.ID) error {
	link, err := s.paymentRepo.FindLinkByLesson(ctx, tx, lessonID)
	if err != nil {
		return err
	}
	if link == nil {
		return nil
	}
	if err := s.paymentRepo.DeleteLink(ctx, tx, link.ID); err != nil {
		return err
	}
	return s.paymentRepo.ReduceAmountDue(ctx, tx, link.PaymentID, link.Amount)
}

func (s *Service) lessonWithParent(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*lessondomain.Lesson, *studentdomain.Parent, error) {
	lesson, err := s.repo.Get(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if lesson == nil {
		return nil, nil, lessondomain.ErrLessonNotFound
	}

	student, err := s.studentRepo.GetStudent(ctx, tx, lesson.StudentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, studentdomain.ErrStudentNotFound
	}

	parent, err := s.studentRepo.GetParent(ctx, tx, student.ParentID)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, studentdomain.ErrParentNotFound
	}
	return lesson, parent, nil
}
