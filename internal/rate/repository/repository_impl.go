package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct{}

func NewRepository() ratedomain.Repository {
	return &repository{}
}

func (r *repository) GetSchedule(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) (*ratedomain.RateSchedule, error) {
	var schedule ratedomain.RateSchedule
	err := tx.WithContext(ctx).Where("tutor_id = ?", tutorID).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) ListSubjectRates(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) ([]ratedomain.SubjectRate, error) {
	var rates []ratedomain.SubjectRate
	err := tx.WithContext(ctx).
		Where("tutor_id = ?", tutorID).
		Order("subject ASC").
		Find(&rates).Error
	return rates, err
}

func (r *repository) UpsertSchedule(ctx context.Context, tx *gorm.DB, schedule *ratedomain.RateSchedule) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tutor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"default_rate", "default_base_duration_min", "combined_session_rate", "updated_at",
		}),
	}).Create(schedule).Error
}

func (r *repository) UpsertSubjectRate(ctx context.Context, tx *gorm.DB, rate *ratedomain.SubjectRate) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tutor_id"}, {Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"rate", "base_duration_min", "duration_prices", "updated_at",
		}),
	}).Create(rate).Error
}

func (r *repository) DeleteSubjectRates(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID, keep []string) error {
	q := tx.WithContext(ctx).Where("tutor_id = ?", tutorID)
	if len(keep) > 0 {
		q = q.Where("subject NOT IN ?", keep)
	}
	return q.Delete(&ratedomain.SubjectRate{}).Error
}
