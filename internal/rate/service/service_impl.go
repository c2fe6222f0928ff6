package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ratedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ratedomain.Repository
}

func NewService(p ServiceParam) ratedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rate.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Schedule(ctx context.Context, tutorID snowflake.ID) (*ratedomain.Schedule, error) {
	header, err := s.repo.GetSchedule(ctx, s.db, tutorID)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, ratedomain.ErrScheduleNotFound
	}

	rows, err := s.repo.ListSubjectRates(ctx, s.db, tutorID)
	if err != nil {
		return nil, err
	}

	schedule := &ratedomain.Schedule{
		TutorID:                tutorID,
		DefaultRate:            header.DefaultRate,
		DefaultBaseDurationMin: header.DefaultBaseDurationMin,
		CombinedSessionRate:    header.CombinedSessionRate,
		SubjectRates:           make(map[string]ratedomain.SubjectRateConfig, len(rows)),
	}
	for _, row := range rows {
		schedule.SubjectRates[normalizeSubject(row.Subject)] = ratedomain.SubjectRateConfig{
			Rate:            row.Rate,
			BaseDurationMin: row.BaseDurationMin,
			DurationPrices:  row.DurationPrices.Data(),
		}
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Service) Save(ctx context.Context, schedule ratedomain.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := &ratedomain.RateSchedule{
			ID:                     s.genID.Generate(),
			TutorID:                schedule.TutorID,
			DefaultRate:            schedule.DefaultRate,
			DefaultBaseDurationMin: schedule.DefaultBaseDurationMin,
			CombinedSessionRate:    schedule.CombinedSessionRate,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		if err := s.repo.UpsertSchedule(ctx, tx, header); err != nil {
			return err
		}

		keep := make([]string, 0, len(schedule.SubjectRates))
		for subject, cfg := range schedule.SubjectRates {
			subject = normalizeSubject(subject)
			keep = append(keep, subject)
			row := &ratedomain.SubjectRate{
				ID:              s.genID.Generate(),
				TutorID:         schedule.TutorID,
				Subject:         subject,
				Rate:            cfg.Rate,
				BaseDurationMin: cfg.BaseDurationMin,
				DurationPrices:  datatypes.NewJSONType(cfg.DurationPrices),
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := s.repo.UpsertSubjectRate(ctx, tx, row); err != nil {
				return err
			}
		}

		// Subjects removed from the schedule fall back to the defaults.
		return s.repo.DeleteSubjectRates(ctx, tx, schedule.TutorID, keep)
	})
}

func normalizeSubject(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}
