package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    prepaiddomain.Repository
	Metrics *observability.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    prepaiddomain.Repository
	metrics *observability.Metrics
}

func NewService(p ServiceParam) prepaiddomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("prepaid.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Consume(
	ctx context.Context,
	tx *gorm.DB,
	parentID snowflake.ID,
	prepaidSubjects []string,
	month billmonth.Month,
	subject string,
) (*prepaiddomain.Account, error) {
	account, err := s.selectAccount(ctx, tx, parentID, prepaidSubjects, month, subject)
	if err != nil || account == nil {
		return nil, err
	}

	if err := s.repo.IncrementUsage(ctx, tx, account.ID); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PrepaidConsumed.Inc()
	}
	account.SessionsUsed++
	return account, nil
}

func (s *Service) Release(
	ctx context.Context,
	tx *gorm.DB,
	parentID snowflake.ID,
	prepaidSubjects []string,
	month billmonth.Month,
	subject string,
) (*prepaiddomain.Account, bool, error) {
	account, err := s.selectAccount(ctx, tx, parentID, prepaidSubjects, month, subject)
	if err != nil || account == nil {
		return nil, false, err
	}

	clamped, err := s.repo.DecrementUsage(ctx, tx, account.ID)
	if err != nil {
		return nil, false, err
	}
	if clamped {
		// Data drift upstream; do not block the user's action.
		s.log.Warn("prepaid usage decrement clamped at zero",
			zap.Stringer("account_id", account.ID),
			zap.Stringer("parent_id", parentID),
			zap.String("month", month.String()),
			zap.String("subject", subject),
		)
		if s.metrics != nil {
			s.metrics.PrepaidUnderflow.Inc()
		}
	} else {
		account.SessionsUsed--
	}
	return account, clamped, nil
}

func (s *Service) selectAccount(
	ctx context.Context,
	tx *gorm.DB,
	parentID snowflake.ID,
	prepaidSubjects []string,
	month billmonth.Month,
	subject string,
) (*prepaiddomain.Account, error) {
	accounts, err := s.repo.ListForParentMonth(ctx, tx, parentID, month)
	if err != nil {
		return nil, err
	}
	return prepaiddomain.Select(accounts, prepaidSubjects, subject), nil
}

func (s *Service) Topup(
	ctx context.Context,
	parentID snowflake.ID,
	month billmonth.Month,
	subject *string,
	sessions int,
) (*prepaiddomain.Account, error) {
	var out *prepaiddomain.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := s.findExact(ctx, tx, parentID, month, subject)
		if err != nil {
			return err
		}
		if account == nil {
			account = &prepaiddomain.Account{
				ID:              s.genID.Generate(),
				ParentID:        parentID,
				Month:           month,
				Subject:         subject,
				SessionsPrepaid: sessions,
				CreatedAt:       time.Now().UTC(),
				UpdatedAt:       time.Now().UTC(),
			}
			out = account
			return s.repo.Insert(ctx, tx, account)
		}
		if err := s.repo.AddPrepaid(ctx, tx, account.ID, sessions); err != nil {
			return err
		}
		account.SessionsPrepaid += sessions
		out = account
		return nil
	})
	return out, err
}

func (s *Service) Rollover(ctx context.Context, parentID snowflake.ID, month billmonth.Month) (int, error) {
	next := month.Next()
	carried := 0

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := s.repo.ListForParentMonth(ctx, tx, parentID, month)
		if err != nil {
			return err
		}

		for _, account := range accounts {
			remaining := account.Remaining()
			if remaining <= 0 {
				continue
			}

			target, err := s.findExact(ctx, tx, parentID, next, account.Subject)
			if err != nil {
				return err
			}
			if target == nil {
				target = &prepaiddomain.Account{
					ID:                 s.genID.Generate(),
					ParentID:           parentID,
					Month:              next,
					Subject:            account.Subject,
					SessionsRolledOver: remaining,
					CreatedAt:          time.Now().UTC(),
					UpdatedAt:          time.Now().UTC(),
				}
				if err := s.repo.Insert(ctx, tx, target); err != nil {
					return err
				}
			} else if err := s.repo.AddRolledOver(ctx, tx, target.ID, remaining); err != nil {
				return err
			}
			carried += remaining
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("prepaid rollover applied",
		zap.Stringer("parent_id", parentID),
		zap.String("from", month.String()),
		zap.String("to", next.String()),
		zap.Int("sessions", carried),
	)
	return carried, nil
}

func (s *Service) ListForParentMonth(ctx context.Context, parentID snowflake.ID, month billmonth.Month) ([]prepaiddomain.Account, error) {
	return s.repo.ListForParentMonth(ctx, s.db, parentID, month)
}

func (s *Service) findExact(
	ctx context.Context,
	tx *gorm.DB,
	parentID snowflake.ID,
	month billmonth.Month,
	subject *string,
) (*prepaiddomain.Account, error) {
	accounts, err := s.repo.ListForParentMonth(ctx, tx, parentID, month)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		a := &accounts[i]
		if subject == nil && a.Subject == nil {
			return a, nil
		}
		if subject != nil && a.Subject != nil && *a.Subject == *subject {
			return a, nil
		}
	}
	return nil, nil
}
