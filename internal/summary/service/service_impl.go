package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	summarydomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	LessonRepo  lessondomain.Repository
	StudentRepo studentdomain.Repository
	PaymentRepo paymentdomain.Repository
	RateService ratedomain.Service
	Metrics     *observability.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	lessonRepo  lessondomain.Repository
	studentRepo studentdomain.Repository
	paymentRepo paymentdomain.Repository
	rateService ratedomain.Service
	metrics     *observability.Metrics
}

func NewService(p ServiceParam) summarydomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("summary.service"),
		lessonRepo:  p.LessonRepo,
		studentRepo: p.StudentRepo,
		paymentRepo: p.PaymentRepo,
		rateService: p.RateService,
		metrics:     p.Metrics,
	}
}

// MonthlySummary snapshots everything the aggregator needs and hands it to
// the pure Aggregate. All reads share one transaction so the summary sees a
// consistent view.
func (s *Service) MonthlySummary(ctx context.Context, tutorID snowflake.ID, month billmonth.Month) (*summarydomain.MonthlySummary, error) {
	schedule, err := s.rateService.Schedule(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	in := summarydomain.Input{Month: month, Schedule: *schedule}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.Lessons, err = s.lessonRepo.ListByMonth(ctx, tx, tutorID, month); err != nil {
			return err
		}
		if in.Students, err = s.studentRepo.ListStudents(ctx, tx); err != nil {
			return err
		}
		if in.Parents, err = s.studentRepo.ListParents(ctx, tx); err != nil {
			return err
		}
		if in.Payments, err = s.paymentRepo.ListByMonth(ctx, tx, month); err != nil {
			return err
		}
		if in.PaymentLessons, err = s.paymentRepo.ListLinksByMonth(ctx, tx, month); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary, err := Aggregate(in)
	if err != nil {
		return nil, err
	}

	if summary.SkippedLessons > 0 {
		s.log.Warn("orphaned lessons skipped during aggregation",
			zap.Int("count", summary.SkippedLessons),
			zap.String("month", month.String()),
		)
		if s.metrics != nil {
			s.metrics.LessonsSkipped.Add(float64(summary.SkippedLessons))
		}
	}
	if s.metrics != nil {
		s.metrics.SummariesBuilt.Inc()
	}
	return summary, nil
}
