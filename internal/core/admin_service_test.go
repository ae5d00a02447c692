package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/models"
	"jyotai-backend/internal/testutil"
)

func TestAdminApplyOp(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Plan: models.PlanStandard, Credits: 1})
	svc := core.NewAdminService(store.Users(), testPlans, zap.NewNop())
	ctx := context.Background()

	user, err := svc.ApplyOp(ctx, "u1", core.AdminOpAddCredit)
	require.NoError(t, err)
	assert.Equal(t, 2, user.Credits)

	user, err = svc.ApplyOp(ctx, "u1", core.AdminOpMakePremium)
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, user.Plan)
	require.NotNil(t, user.Quota)
	assert.Equal(t, 0, user.Quota.Used)
	assert.Equal(t, 20, user.Quota.Limit)
	require.NotNil(t, user.PremiumUntil)
	assert.WithinDuration(t, time.Now().Add(testPlans.PremiumDuration), *user.PremiumUntil, time.Minute)

	user, err = svc.ApplyOp(ctx, "u1", core.AdminOpMakeStandard)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStandard, user.Plan)

	_, err = svc.ApplyOp(ctx, "u1", "deleteEverything")
	assert.ErrorIs(t, err, core.ErrUnknownOperation)

	_, err = svc.ApplyOp(ctx, "ghost", core.AdminOpAddCredit)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestAdminAddCreditsAndSetPlan(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Plan: models.PlanStandard, Credits: 0})
	svc := core.NewAdminService(store.Users(), testPlans, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.AddCredits(ctx, "u1", 5))
	assert.Equal(t, 5, store.User("u1").Credits)

	assert.ErrorIs(t, svc.AddCredits(ctx, "u1", 0), core.ErrInvalidPayload)
	assert.ErrorIs(t, svc.SetPlan(ctx, "u1", "platinum"), core.ErrInvalidPayload)
	assert.ErrorIs(t, svc.SetPlan(ctx, "", models.PlanPremium), core.ErrInvalidPayload)
}

func TestAdminListUsersNewestFirst(t *testing.T) {
	store := testutil.NewStore()
	now := time.Now()
	store.PutUser(&models.User{ID: "old", CreatedAt: now.Add(-time.Hour)})
	store.PutUser(&models.User{ID: "new", CreatedAt: now})

	users, err := core.NewAdminService(store.Users(), testPlans, zap.NewNop()).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "new", users[0].ID)
}
