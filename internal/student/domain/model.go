// Package domain contains the parent and student records the billing engine
// joins lessons against.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrParentNotFound  = errors.New("parent_not_found")
	ErrStudentNotFound = errors.New("student_not_found")
)

// Parent is the billed party. PrepaidSubjects, when non-empty, restricts
// prepaid-session accounting to the listed subjects; lesson subjects outside
// the list are invoiced normally and never drawn from the legacy all-subject
// account.
type Parent struct {
	ID              snowflake.ID                 `gorm:"primaryKey" json:"id"`
	Name            string                       `gorm:"type:text;not null" json:"name"`
	Email           string                       `gorm:"type:text" json:"email"`
	Phone           string                       `gorm:"type:text" json:"phone"`
	PrepaidSubjects datatypes.JSONSlice[string]  `json:"prepaid_subjects"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

func (Parent) TableName() string { return "parents" }

// NormalizedPrepaidSubjects returns the configured subject list lower-cased
// and trimmed, the form every prepaid lookup uses.
func (p Parent) NormalizedPrepaidSubjects() []string {
	out := make([]string, 0, len(p.PrepaidSubjects))
	for _, s := range p.PrepaidSubjects {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Student struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ParentID  snowflake.ID `gorm:"not null;index" json:"parent_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (Student) TableName() string { return "students" }

type Repository interface {
	GetParent(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Parent, error)
	ListParents(ctx context.Context, tx *gorm.DB) ([]Parent, error)
	InsertParent(ctx context.Context, tx *gorm.DB, parent *Parent) error

	GetStudent(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Student, error)
	ListStudents(ctx context.Context, tx *gorm.DB) ([]Student, error)
	InsertStudent(ctx context.Context, tx *gorm.DB, student *Student) error
}
