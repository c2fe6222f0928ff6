package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() studentdomain.Repository {
	return &repository{}
}

func (r *repository) GetParent(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*studentdomain.Parent, error) {
	var parent studentdomain.Parent
	err := tx.WithContext(ctx).Where("id = ?", id).First(&parent).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &parent, nil
}

func (r *repository) ListParents(ctx context.Context, tx *gorm.DB) ([]studentdomain.Parent, error) {
	var parents []studentdomain.Parent
	err := tx.WithContext(ctx).Order("name ASC").Find(&parents).Error
	return parents, err
}

func (r *repository) InsertParent(ctx context.Context, tx *gorm.DB, parent *studentdomain.Parent) error {
	return tx.WithContext(ctx).Create(parent).Error
}

func (r *repository) GetStudent(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*studentdomain.Student, error) {
	var student studentdomain.Student
	err := tx.WithContext(ctx).Where("id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *repository) ListStudents(ctx context.Context, tx *gorm.DB) ([]studentdomain.Student, error) {
	var students []studentdomain.Student
	err := tx.WithContext(ctx).Order("name ASC").Find(&students).Error
	return students, err
}

func (r *repository) InsertStudent(ctx context.Context, tx *gorm.DB, student *studentdomain.Student) error {
	return tx.WithContext(ctx).Create(student).Error
}
