package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repository struct{}

func NewRepository() paymentdomain.Repository {
	return &repository{}
}

func (r *repository) Get(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := tx.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := tx.WithContext(ctx).
		Where("month = ?", month).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *repository) ListLinksByMonth(ctx context.Context, tx *gorm.DB, month billmonth.Month) ([]paymentdomain.PaymentLesson, error) {
	var links []paymentdomain.PaymentLesson
	err := tx.WithContext(ctx).Raw(
		`SELECT pl.* FROM payment_lessons pl
		 JOIN payments p ON p.id = pl.payment_id
		 WHERE p.month = ?`,
		month,
	).Scan(&links).Error
	return links, err
}

func (r *repository) FindLinkByLesson(ctx context.Context, tx *gorm.DB, lessonID snowflake.ID) (*paymentdomain.PaymentLesson, error) {
	var link paymentdomain.PaymentLesson
	err := tx.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repository) Insert(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *repository) InsertLink(ctx context.Context, tx *gorm.DB, link *paymentdomain.PaymentLesson) error {
	return tx.WithContext(ctx).Create(link).Error
}

func (r *repository) DeleteLink(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	return tx.WithContext(ctx).Where("id = ?", id).Delete(&paymentdomain.PaymentLesson{}).Error
}

func (r *repository) ReduceAmountDue(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	res := tx.WithContext(ctx).Model(&paymentdomain.Payment{}).
		Where("id = ?", id).
		UpdateColumn("amount_due", gorm.Expr("amount_due - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return paymentdomain.ErrPaymentNotFound
	}
	return nil
}

func (r *repository) ApplyPayment(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal, status paymentdomain.Status) error {
	res := tx.WithContext(ctx).Model(&paymentdomain.Payment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"amount_paid": gorm.Expr("amount_paid + ?", amount),
			"status":      status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return paymentdomain.ErrPaymentNotFound
	}
	return nil
}
