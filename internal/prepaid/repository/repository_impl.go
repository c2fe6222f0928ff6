package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() prepaiddomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*prepaiddomain.Account, error) {
	var account prepaiddomain.Account
	err := tx.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListForParentMonth(ctx context.Context, tx *gorm.DB, parentID snowflake.ID, month billmonth.Month) ([]prepaiddomain.Account, error) {
	var accounts []prepaiddomain.Account
	err := tx.WithContext(ctx).
		Where("parent_id = ? AND month = ?", parentID, month).
		Find(&accounts).Error
	return accounts, err
}

func (r *repository) ListForMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]prepaiddomain.Account, error) {
	var accounts []prepaiddomain.Account
	err := tx.WithContext(ctx).
		Where("month = ?", month).
		Find(&accounts).Error
	return accounts, err
}

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, account *prepaiddomain.Account) error {
	return tx.WithContext(ctx).Create(account).Error
}

// IncrementUsage is a single atomic UPDATE; concurrent completions of two
// lessons on the same account serialize at the database row, so no increment
// is ever lost to a read-modify-write race.
func (r *repository) IncrementUsage(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	res := tx.WithContext(ctx).Model(&prepaiddomain.Account{}).
		Where("id = ?", id).
		UpdateColumn("sessions_used", gorm.Expr("sessions_used + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prepaiddomain.ErrAccountNotFound
	}
	return nil
}

// DecrementUsage guards the decrement with sessions_used > 0 in the same
// statement, so the counter can never go negative regardless of how many
// reversals race or repeat.
func (r *repository) DecrementUsage(ctx context.Context, tx *gorm.DB, id snowflake.ID) (bool, error) {
	res := tx.WithContext(ctx).Model(&prepaiddomain.Account{}).
		Where("id = ? AND sessions_used > 0", id).
		UpdateColumn("sessions_used", gorm.Expr("sessions_used - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.WithContext(ctx).Model(&prepaiddomain.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count == 0 {
			return false, prepaiddomain.ErrAccountNotFound
		}
		return true, nil
	}
	return false, nil
}

func (r *repository) AddPrepaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, sessions int) error {
	res := tx.WithContext(ctx).Model(&prepaiddomain.Account{}).
		Where("id = ?", id).
		UpdateColumn("sessions_prepaid", gorm.Expr("sessions_prepaid + ?", sessions))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prepaiddomain.ErrAccountNotFound
	}
	return nil
}

func (r *repository) AddRolledOver(ctx context.Context, tx *gorm.DB, id snowflake.ID, sessions int) error {
	res := tx.WithContext(ctx).Model(&prepaiddomain.Account{}).
		Where("id = ?", id).
		UpdateColumn("sessions_rolled_over", gorm.Expr("sessions_rolled_over + ?", sessions))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return prepaiddomain.ErrAccountNotFound
	}
	return nil
}
