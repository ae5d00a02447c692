package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/models"
	"jyotai-backend/internal/testutil"
)

func newPredictionService(store *testutil.Store, mail *testutil.Mailer) core.PredictionService {
	return core.NewPredictionService(store.Predictions(), store.Users(), mail, testPlans, core.NotifySettings{
		BaseURL:      "https://www.jyoti.app",
		SupportEmail: "support@jyoti.app",
	}, zap.NewNop())
}

func saveReq(uid string) models.SavePredictionRequest {
	return models.SavePredictionRequest{UserID: uid, Query: "Career?", Reading: "Jupiter favours you.", Name: "Asha"}
}

func TestSavePredictionStandardDecrementsCredits(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Email: "a@b.com", Plan: models.PlanStandard, Credits: 2})
	mail := &testutil.Mailer{}

	res, err := newPredictionService(store, mail).Save(context.Background(), "", saveReq("u1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PredictionID, "pred_"))
	assert.Len(t, res.PredictionID, len("pred_")+24)
	assert.Equal(t, 1, res.Remaining)
	assert.Equal(t, 1, store.User("u1").Credits)
	assert.Equal(t, 1, store.PredictionCount("u1"))

	require.Equal(t, 1, mail.Count())
	assert.Equal(t, "a@b.com", mail.Sent[0].To)
	assert.Contains(t, mail.Sent[0].HTML, "/predictions/"+res.PredictionID)
}

func TestSavePredictionStandardWithoutCredits(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Plan: models.PlanStandard, Credits: 0})

	_, err := newPredictionService(store, &testutil.Mailer{}).Save(context.Background(), "", saveReq("u1"))
	assert.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.Zero(t, store.PredictionCount("u1"))
	assert.Equal(t, 0, store.User("u1").Credits)
}

func TestSavePredictionConcurrentLastCredit(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Email: "a@b.com", Plan: models.PlanStandard, Credits: 1})
	svc := newPredictionService(store, &testutil.Mailer{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Save(context.Background(), "", saveReq("u1"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, core.ErrLimitExceeded)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, store.User("u1").Credits)
	assert.Equal(t, 1, store.PredictionCount("u1"))
}

func TestSavePredictionPremiumStaleMonthResetsQuota(t *testing.T) {
	store := testutil.NewStore()
	until := time.Now().Add(48 * time.Hour)
	store.PutUser(&models.User{
		ID:           "u1",
		Plan:         models.PlanPremium,
		PremiumUntil: &until,
		Quota:        &models.MonthlyQuota{Month: "2000-01", Limit: 20, Used: 20},
	})

	res, err := newPredictionService(store, &testutil.Mailer{}).Save(context.Background(), "", saveReq("u1"))
	require.NoError(t, err)
	assert.Equal(t, 19, res.Remaining)

	user := store.User("u1")
	assert.Equal(t, models.QuotaMonth(time.Now()), user.Quota.Month)
	assert.Equal(t, 1, user.Quota.Used)
}

func TestSavePredictionPremiumLimits(t *testing.T) {
	month := models.QuotaMonth(time.Now())
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		user    *models.User
		wantErr error
	}{
		{
			name:    "quota used up",
			user:    &models.User{ID: "u1", Plan: models.PlanPremium, PremiumUntil: &future, Quota: &models.MonthlyQuota{Month: month, Limit: 20, Used: 20}},
			wantErr: core.ErrLimitExceeded,
		},
		{
			name:    "plan expired",
			user:    &models.User{ID: "u1", Plan: models.PlanPremium, PremiumUntil: &past, Quota: &models.MonthlyQuota{Month: month, Limit: 20}},
			wantErr: core.ErrPlanExpired,
		},
		{
			name:    "unknown plan",
			user:    &models.User{ID: "u1", Plan: "gold"},
			wantErr: core.ErrForbidden,
		},
		{
			name:    "no plan",
			user:    &models.User{ID: "u1"},
			wantErr: core.ErrNoPlan,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewStore()
			store.PutUser(tt.user)

			_, err := newPredictionService(store, &testutil.Mailer{}).Save(context.Background(), "", saveReq("u1"))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.PredictionCount("u1"))
		})
	}
}

func TestSavePredictionExpiredPremiumSpendsCredits(t *testing.T) {
	store := testutil.NewStore()
	past := time.Now().Add(-time.Hour)
	store.PutUser(&models.User{
		ID:           "u1",
		Plan:         models.PlanPremium,
		Credits:      2,
		PremiumUntil: &past,
		Quota:        &models.MonthlyQuota{Month: models.QuotaMonth(time.Now()), Limit: 20},
	})
	svc := newPredictionService(store, &testutil.Mailer{})

	res, err := svc.Save(context.Background(), "", saveReq("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Remaining)

	user := store.User("u1")
	assert.Equal(t, models.PlanStandard, user.Plan)
	assert.Equal(t, 1, user.Credits)

	_, err = svc.Save(context.Background(), "", saveReq("u1"))
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), "", saveReq("u1"))
	assert.ErrorIs(t, err, core.ErrLimitExceeded)
	assert.Equal(t, 2, store.PredictionCount("u1"))
}

func TestSavePredictionChecks(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Plan: models.PlanStandard, Credits: 5})
	svc := newPredictionService(store, &testutil.Mailer{})

	_, err := svc.Save(context.Background(), "someone-else", saveReq("u1"))
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Save(context.Background(), "", models.SavePredictionRequest{UserID: "u1", Query: "q"})
	assert.ErrorIs(t, err, core.ErrInvalidPayload)

	_, err = svc.Save(context.Background(), "", saveReq("ghost"))
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	assert.Equal(t, 5, store.User("u1").Credits)
}

func TestSavePredictionMailFailureIsNotFatal(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Email: "a@b.com", Plan: models.PlanStandard, Credits: 1})

	_, err := newPredictionService(store, &testutil.Mailer{Err: errors.New("smtp down")}).Save(context.Background(), "u1", saveReq("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.PredictionCount("u1"))
}

func TestGetAndListPredictions(t *testing.T) {
	store := testutil.NewStore()
	store.PutUser(&models.User{ID: "u1", Email: "a@b.com", Name: "Asha", Plan: models.PlanStandard, Credits: 3})
	svc := newPredictionService(store, &testutil.Mailer{})

	res, err := svc.Save(context.Background(), "", saveReq("u1"))
	require.NoError(t, err)

	view, err := svc.Get(context.Background(), "u1", res.PredictionID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", view.User.Name)
	assert.Equal(t, "Jupiter favours you.", view.Prediction.Reading)

	_, err = svc.Get(context.Background(), "u1", "pred_missing")
	assert.ErrorIs(t, err, core.ErrPredictionNotFound)

	_, err = svc.Get(context.Background(), "ghost", res.PredictionID)
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
