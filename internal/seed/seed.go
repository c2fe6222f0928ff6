package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
)

// TutorID is the fixed demo tutor every seeded record hangs off.
const TutorID snowflake.ID = 1_000_001

// EnsureDemoData seeds a small tutoring business for local development: one
// tutor rate schedule, two families and a month of lessons. Re-running is a
// no-op once the schedule exists.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ratedomain.RateSchedule{}).
			Where("tutor_id = ?", TutorID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := seedRates(tx, node); err != nil {
			return err
		}
		return seedFamilies(tx, node)
	})
}

func seedRates(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()

	schedule := ratedomain.RateSchedule{
		ID:                     node.Generate(),
		TutorID:                TutorID,
		DefaultRate:            decimal.NewFromInt(70),
		DefaultBaseDurationMin: 60,
		CombinedSessionRate:    decimal.NewFromInt(40),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := tx.Create(&schedule).Error; err != nil {
		return err
	}

	subjects := []ratedomain.SubjectRate{
		{
			ID:              node.Generate(),
			TutorID:         TutorID,
			Subject:         "piano",
			Rate:            decimal.NewFromInt(35),
			BaseDurationMin: 30,
			DurationPrices: datatypes.NewJSONType(ratedomain.TierTable{
				ratedomain.Duration45: decimal.NewFromInt(50),
				ratedomain.Duration60: decimal.NewFromInt(65),
			}),
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:              node.Generate(),
			TutorID:         TutorID,
			Subject:         "math",
			Rate:            decimal.NewFromInt(70),
			BaseDurationMin: 60,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
	for i := range subjects {
		if err := tx.Create(&subjects[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedFamilies(tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()
	month := billmonth.Of(now)

	smith := studentdomain.Parent{
		ID:              node.Generate(),
		Name:            "Smith",
		Email:           "smith@example.com",
		PrepaidSubjects: datatypes.JSONSlice[string]{"piano"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	young := studentdomain.Parent{
		ID:        node.Generate(),
		Name:      "Young",
		Email:     "young@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, p := range []*studentdomain.Parent{&smith, &young} {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
	}

	alice := studentdomain.Student{ID: node.Generate(), ParentID: smith.ID, Name: "Alice Smith", CreatedAt: now, UpdatedAt: now}
	ben := studentdomain.Student{ID: node.Generate(), ParentID: young.ID, Name: "Ben Young", CreatedAt: now, UpdatedAt: now}
	for _, s := range []*studentdomain.Student{&alice, &ben} {
		if err := tx.Create(s).Error; err != nil {
			return err
		}
	}

	pianoSubject := "piano"
	prepaid := prepaiddomain.Account{
		ID:              node.Generate(),
		ParentID:        smith.ID,
		Month:           month,
		Subject:         &pianoSubject,
		SessionsPrepaid: 4,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.Create(&prepaid).Error; err != nil {
		return err
	}

	start, _ := month.Bounds()
	lessons := []lessondomain.Lesson{
		{
			ID:          node.Generate(),
			TutorID:     TutorID,
			StudentID:   alice.ID,
			Subject:     "piano",
			ScheduledAt: start.Add(2*24*time.Hour + 15*time.Hour),
			DurationMin: 45,
			Status:      lessondomain.StatusScheduled,
		},
		{
			ID:          node.Generate(),
			TutorID:     TutorID,
			StudentID:   alice.ID,
			Subject:     "math",
			ScheduledAt: start.Add(4*24*time.Hour + 16*time.Hour),
			DurationMin: 60,
			Status:      lessondomain.StatusScheduled,
		},
		{
			ID:          node.Generate(),
			TutorID:     TutorID,
			StudentID:   ben.ID,
			Subject:     "math",
			ScheduledAt: start.Add(3*24*time.Hour + 10*time.Hour),
			DurationMin: 60,
			Status:      lessondomain.StatusScheduled,
		},
	}
	for i := range lessons {
		lessons[i].CreatedAt = now
		lessons[i].UpdatedAt = now
		if err := tx.Create(&lessons[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
