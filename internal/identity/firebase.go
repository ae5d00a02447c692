// Package identity adapts Firebase Authentication to core.IdentityProvider.
package identity

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"jyotai-backend/internal/core"
)

// AdminClaim is the custom claim that marks dashboard administrators.
const AdminClaim = "isAdmin"

// authClient is the subset of *auth.Client used here.
type authClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	EmailSignInLink(ctx context.Context, email string, settings *auth.ActionCodeSettings) (string, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseProvider implements core.IdentityProvider with the Firebase Admin SDK.
type FirebaseProvider struct {
	client authClient
	logger *zap.Logger
}

// NewFirebaseProvider wraps an initialized Firebase Auth client.
func NewFirebaseProvider(client *auth.Client, logger *zap.Logger) *FirebaseProvider {
	return &FirebaseProvider{client: client, logger: logger}
}

func (p *FirebaseProvider) EnsureUser(ctx context.Context, email, name string) (*core.Identity, error) {
	rec, err := p.client.GetUserByEmail(ctx, email)
	if err == nil {
		return fromRecord(rec), nil
	}
	if !auth.IsUserNotFound(err) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	params := (&auth.UserToCreate{}).Email(email).EmailVerified(true)
	if name != "" {
		params = params.DisplayName(name)
	}
	rec, err = p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			// Lost a race with another delivery or sign-in; the user exists now.
			if rec, err = p.client.GetUserByEmail(ctx, email); err == nil {
				return fromRecord(rec), nil
			}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	p.logger.Info("Identity user created", zap.String("uid", rec.UID))
	return fromRecord(rec), nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*core.Identity, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	return fromToken(token), nil
}

func (p *FirebaseProvider) CreateSession(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := p.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create session cookie: %v", core.ErrUnauthorized, err)
	}
	return cookie, nil
}

func (p *FirebaseProvider) VerifySession(ctx context.Context, sessionCookie string) (*core.Identity, error) {
	token, err := p.client.VerifySessionCookieAndCheckRevoked(ctx, sessionCookie)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	return fromToken(token), nil
}

func (p *FirebaseProvider) SignInLink(ctx context.Context, email, continueURL string) (string, error) {
	link, err := p.client.EmailSignInLink(ctx, email, &auth.ActionCodeSettings{
		URL:             continueURL,
		HandleCodeInApp: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate email sign-in link: %w", err)
	}
	return link, nil
}

func (p *FirebaseProvider) GrantAdmin(ctx context.Context, email string) (*core.Identity, error) {
	ident, err := p.EnsureUser(ctx, email, "")
	if err != nil {
		return nil, err
	}
	rec, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	claims := map[string]interface{}{}
	for k, v := range rec.CustomClaims {
		claims[k] = v
	}
	claims[AdminClaim] = true
	if err := p.client.SetCustomUserClaims(ctx, ident.UID, claims); err != nil {
		return nil, fmt.Errorf("failed to set admin claim: %w", err)
	}
	// Existing sessions carry the old claims; force a fresh sign-in.
	if err := p.client.RevokeRefreshTokens(ctx, ident.UID); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	ident.IsAdmin = true
	return ident, nil
}

func fromRecord(rec *auth.UserRecord) *core.Identity {
	ident := &core.Identity{}
	if rec.UserInfo != nil {
		ident.UID = rec.UID
		ident.Email = rec.Email
		ident.Name = rec.DisplayName
	}
	ident.IsAdmin = isAdmin(rec.CustomClaims)
	return ident
}

func fromToken(token *auth.Token) *core.Identity {
	ident := &core.Identity{UID: token.UID, IsAdmin: isAdmin(token.Claims)}
	if email, ok := token.Claims["email"].(string); ok {
		ident.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		ident.Name = name
	}
	return ident
}

func isAdmin(claims map[string]interface{}) bool {
	v, ok := claims[AdminClaim].(bool)
	return ok && v
}
