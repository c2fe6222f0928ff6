package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/billmonth"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&prepaiddomain.Account{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		repo:  repository.NewRepository(),
	}, db
}

func mustMonth(t *testing.T, s string) billmonth.Month {
	t.Helper()
	m, err := billmonth.Parse(s)
	require.NoError(t, err)
	return m
}

func TestConsumeAndReleaseRoundTrip(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()

	_, err := svc.Topup(ctx, parentID, month, nil, 4)
	require.NoError(t, err)

	account, err := svc.Consume(ctx, db, parentID, nil, month, "piano")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, 1, account.SessionsUsed)

	released, clamped, err := svc.Release(ctx, db, parentID, nil, month, "piano")
	require.NoError(t, err)
	require.NotNil(t, released)
	assert.False(t, clamped)

	stored, err := svc.repo.Get(ctx, db, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SessionsUsed)
}

func TestReleaseClampsAtZero(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()

	topped, err := svc.Topup(ctx, parentID, month, nil, 2)
	require.NoError(t, err)

	// Release without a prior consumption must clamp, not go negative.
	_, clamped, err := svc.Release(ctx, db, parentID, nil, month, "math")
	require.NoError(t, err)
	assert.True(t, clamped)

	stored, err := svc.repo.Get(ctx, db, topped.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SessionsUsed)
}

func TestConsumeHybridModeSkipsLegacyAccount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()

	// Legacy account exists, but the parent's prepaid list names piano only.
	legacy, err := svc.Topup(ctx, parentID, month, nil, 10)
	require.NoError(t, err)

	account, err := svc.Consume(ctx, db, parentID, []string{"piano"}, month, "math")
	require.NoError(t, err)
	assert.Nil(t, account, "math lesson must be invoiced, not drawn from legacy")

	stored, err := svc.repo.Get(ctx, db, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.SessionsUsed)
}

func TestTopupCreatesThenAccumulates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()
	piano := "piano"

	first, err := svc.Topup(ctx, parentID, month, &piano, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, first.SessionsPrepaid)

	second, err := svc.Topup(ctx, parentID, month, &piano, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, second.SessionsPrepaid)
}

func TestRolloverCarriesUnusedBalance(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()
	piano := "piano"

	_, err := svc.Topup(ctx, parentID, month, &piano, 4)
	require.NoError(t, err)
	_, err = svc.Consume(ctx, db, parentID, []string{"piano"}, month, "piano")
	require.NoError(t, err)

	carried, err := svc.Rollover(ctx, parentID, month)
	require.NoError(t, err)
	assert.Equal(t, 3, carried)

	next, err := svc.ListForParentMonth(ctx, parentID, month.Next())
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, 3, next[0].SessionsRolledOver)
	assert.Equal(t, 0, next[0].SessionsUsed)
}

func TestRolloverSkipsDrainedAccounts(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	month := mustMonth(t, "2026-08")
	parentID := svc.genID.Generate()

	_, err := svc.Topup(ctx, parentID, month, nil, 1)
	require.NoError(t, err)
	_, err = svc.Consume(ctx, db, parentID, nil, month, "piano")
	require.NoError(t, err)

	carried, err := svc.Rollover(ctx, parentID, month)
	require.NoError(t, err)
	assert.Equal(t, 0, carried)

	next, err := svc.ListForParentMonth(ctx, parentID, month.Next())
	require.NoError(t, err)
	assert.Empty(t, next)
}
