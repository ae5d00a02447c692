package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/models"
	"jyotai-backend/internal/testutil"
)

func newAuthService(store *testutil.Store, identity *testutil.Identity, mail *testutil.Mailer) core.AuthService {
	users := core.NewUserService(store.Users(), zap.NewNop())
	return core.NewAuthService(identity, users, mail, core.NotifySettings{
		BaseURL:      "https://www.jyoti.app",
		SupportEmail: "support@jyoti.app",
	}, 120*time.Hour, zap.NewNop())
}

func TestLoginCreatesProfileOnce(t *testing.T) {
	store := testutil.NewStore()
	identity := testutil.NewIdentity()
	identity.AddToken("idtok", core.Identity{UID: "abcdef123", Email: "A@B.com", Name: "Asha"})
	svc := newAuthService(store, identity, &testutil.Mailer{})

	cookie, user, err := svc.Login(context.Background(), "idtok")
	require.NoError(t, err)
	assert.NotEmpty(t, cookie)
	assert.Equal(t, models.PlanStandard, user.Plan)
	assert.Equal(t, 0, user.Credits)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Regexp(t, `^abcdef[0-9]{1,3}$`, user.ReferralCode)

	store.PutUser(&models.User{ID: "abcdef123", Plan: models.PlanPremium})
	_, user, err = svc.Login(context.Background(), "idtok")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPremium, user.Plan, "existing profiles are not overwritten")

	_, _, err = svc.Login(context.Background(), "bad")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestSendMagicLink(t *testing.T) {
	mail := &testutil.Mailer{}
	identity := testutil.NewIdentity()
	svc := newAuthService(testutil.NewStore(), identity, mail)

	require.NoError(t, svc.SendMagicLink(context.Background(), "  Asha@Example.COM "))
	require.Equal(t, 1, mail.Count())
	assert.Equal(t, "asha@example.com", mail.Sent[0].To)
	assert.Contains(t, mail.Sent[0].HTML, "https://www.jyoti.app/login")

	assert.ErrorIs(t, svc.SendMagicLink(context.Background(), "nope"), core.ErrInvalidEmail)

	identity.LinkErr = errors.New("quota exceeded")
	err := svc.SendMagicLink(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrInvalidEmail)
}

func TestVerifySessionAndGrantAdmin(t *testing.T) {
	identity := testutil.NewIdentity()
	identity.AddSession("good", core.Identity{UID: "u1", Email: "a@b.com", IsAdmin: true})
	svc := newAuthService(testutil.NewStore(), identity, &testutil.Mailer{})

	ident, err := svc.VerifySession(context.Background(), "good")
	require.NoError(t, err)
	assert.True(t, ident.IsAdmin)

	_, err = svc.VerifySession(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	granted, err := svc.GrantAdmin(context.Background(), "Boss@B.com")
	require.NoError(t, err)
	assert.True(t, granted.IsAdmin)
	assert.Equal(t, "boss@b.com", granted.Email)
}
