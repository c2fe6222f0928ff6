package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() lessondomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*lessondomain.Lesson, error) {
	var lesson lessondomain.Lesson
	err := tx.WithContext(ctx).Where("id = ?", id).First(&lesson).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lesson, nil
}

func (r *repository) ListByMonth(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID, month billmonth.Month) ([]lessondomain.Lesson, error) {
	start, end := month.Bounds()
	var lessons []lessondomain.Lesson
	err := tx.WithContext(ctx).
		Where("tutor_id = ? AND scheduled_at >= ? AND scheduled_at < ?", tutorID, start, end).
		Order("scheduled_at ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *repository) ListCancelledWithLinks(ctx context.Context, tx *gorm.DB, tutorID snowflake.ID) ([]lessondomain.Lesson, error) {
	var lessons []lessondomain.Lesson
	err := tx.WithContext(ctx).Raw(
		`SELECT l.* FROM lessons l
		 JOIN payment_lessons pl ON pl.lesson_id = l.id
		 WHERE l.tutor_id = ? AND l.status = ?`,
		tutorID, lessondomain.StatusCancelled,
	).Scan(&lessons).Error
	return lessons, err
}

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, lesson *lessondomain.Lesson) error {
	return tx.WithContext(ctx).Create(lesson).Error
}

// SetStatus is a conditional update: the from-status guard makes transitions
// race-safe and repeat-safe, so a second uncomplete or a double-complete
// changes nothing.
func (r *repository) SetStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, from, to lessondomain.Status) (bool, error) {
	res := tx.WithContext(ctx).Model(&lessondomain.Lesson{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetMetadata(ctx context.Context, tx *gorm.DB, id snowflake.ID, metadata datatypes.JSONMap) error {
	return tx.WithContext(ctx).Model(&lessondomain.Lesson{}).
		Where("id = ?", id).
		UpdateColumn("metadata", metadata).Error
}
