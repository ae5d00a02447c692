package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
)

type fakeAuthClient struct {
	users        map[string]*auth.UserRecord
	sessions     map[string]*auth.Token
	claimsSet    map[string]map[string]interface{}
	revoked      []string
	linkSettings *auth.ActionCodeSettings
}

func (f *fakeAuthClient) GetUserByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	if rec, ok := f.users[email]; ok {
		return rec, nil
	}
	return nil, errors.New("lookup failed")
}

func (f *fakeAuthClient) CreateUser(context.Context, *auth.UserToCreate) (*auth.UserRecord, error) {
	return nil, errors.New("not supported")
}

func (f *fakeAuthClient) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f.sessions[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

func (f *fakeAuthClient) SessionCookie(_ context.Context, idToken string, _ time.Duration) (string, error) {
	return "cookie-" + idToken, nil
}

func (f *fakeAuthClient) VerifySessionCookieAndCheckRevoked(_ context.Context, cookie string) (*auth.Token, error) {
	if tok, ok := f.sessions[cookie]; ok {
		return tok, nil
	}
	return nil, errors.New("session revoked")
}

func (f *fakeAuthClient) EmailSignInLink(_ context.Context, email string, settings *auth.ActionCodeSettings) (string, error) {
	f.linkSettings = settings
	return "https://auth.example/link?email=" + email, nil
}

func (f *fakeAuthClient) SetCustomUserClaims(_ context.Context, uid string, claims map[string]interface{}) error {
	if f.claimsSet == nil {
		f.claimsSet = map[string]map[string]interface{}{}
	}
	f.claimsSet[uid] = claims
	return nil
}

func (f *fakeAuthClient) RevokeRefreshTokens(_ context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	return nil
}

func newProvider(f *fakeAuthClient) *FirebaseProvider {
	return &FirebaseProvider{client: f, logger: zap.NewNop()}
}

func TestVerifySessionReadsAdminClaim(t *testing.T) {
	f := &fakeAuthClient{sessions: map[string]*auth.Token{
		"admin-cookie": {UID: "u1", Claims: map[string]interface{}{"email": "a@b.com", "isAdmin": true}},
		"user-cookie":  {UID: "u2", Claims: map[string]interface{}{"isAdmin": "true"}},
	}}
	p := newProvider(f)

	ident, err := p.VerifySession(context.Background(), "admin-cookie")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UID)
	assert.Equal(t, "a@b.com", ident.Email)
	assert.True(t, ident.IsAdmin)

	ident, err = p.VerifySession(context.Background(), "user-cookie")
	require.NoError(t, err)
	assert.False(t, ident.IsAdmin, "only a boolean true claim grants admin")

	_, err = p.VerifySession(context.Background(), "unknown")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestEnsureUserReturnsExisting(t *testing.T) {
	f := &fakeAuthClient{users: map[string]*auth.UserRecord{
		"a@b.com": {UserInfo: &auth.UserInfo{UID: "u1", Email: "a@b.com", DisplayName: "Asha"}},
	}}
	ident, err := newProvider(f).EnsureUser(context.Background(), "a@b.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.UID)
	assert.Equal(t, "Asha", ident.Name)
}

func TestSignInLinkHandlesCodeInApp(t *testing.T) {
	f := &fakeAuthClient{}
	link, err := newProvider(f).SignInLink(context.Background(), "a@b.com", "https://www.jyoti.app/login")
	require.NoError(t, err)
	assert.Contains(t, link, "a@b.com")
	require.NotNil(t, f.linkSettings)
	assert.Equal(t, "https://www.jyoti.app/login", f.linkSettings.URL)
	assert.True(t, f.linkSettings.HandleCodeInApp)
}

func TestGrantAdminMergesClaimsAndRevokes(t *testing.T) {
	f := &fakeAuthClient{users: map[string]*auth.UserRecord{
		"boss@b.com": {
			UserInfo:     &auth.UserInfo{UID: "u9", Email: "boss@b.com"},
			CustomClaims: map[string]interface{}{"tier": "gold"},
		},
	}}
	ident, err := newProvider(f).GrantAdmin(context.Background(), "boss@b.com")
	require.NoError(t, err)
	assert.True(t, ident.IsAdmin)
	assert.Equal(t, map[string]interface{}{"tier": "gold", "isAdmin": true}, f.claimsSet["u9"])
	assert.Equal(t, []string{"u9"}, f.revoked)
}
