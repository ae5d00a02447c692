package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"jyotai-backend/internal/mailer"
	"jyotai-backend/internal/models"
)

type authService struct {
	identity   IdentityProvider
	users      UserService
	mail       mailer.Sender
	notify     NotifySettings
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(identity IdentityProvider, users UserService, mail mailer.Sender, notify NotifySettings, sessionTTL time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		identity:   identity,
		users:      users,
		mail:       mail,
		notify:     notify,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

func (s *authService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *authService) Login(ctx context.Context, idToken string) (string, *models.User, error) {
	if strings.TrimSpace(idToken) == "" {
		return "", nil, fmt.Errorf("%w: missing ID token", ErrUnauthorized)
	}
	ident, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", nil, err
	}
	user, created, err := s.users.GetOrCreate(ctx, ident.UID, strings.ToLower(ident.Email), ident.Name)
	if err != nil {
		return "", nil, err
	}
	cookie, err := s.identity.CreateSession(ctx, idToken, s.sessionTTL)
	if err != nil {
		return "", nil, err
	}
	s.logger.Info("Session created", zap.String("uid", ident.UID), zap.Bool("new_profile", created))
	return cookie, user, nil
}

func (s *authService) VerifySession(ctx context.Context, sessionCookie string) (*Identity, error) {
	if strings.TrimSpace(sessionCookie) == "" {
		return nil, fmt.Errorf("%w: missing session", ErrUnauthorized)
	}
	return s.identity.VerifySession(ctx, sessionCookie)
}

func (s *authService) SendMagicLink(ctx context.Context, rawEmail string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}
	link, err := s.identity.SignInLink(ctx, email, s.notify.BaseURL+"/login")
	if err != nil {
		return fmt.Errorf("failed to generate sign-in link: %w", err)
	}
	msg, err := mailer.MagicLinkEmail(email, link, s.notify.SupportEmail)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send sign-in link: %w", err)
	}
	s.logger.Info("Magic link sent", zap.String("email", email))
	return nil
}

func (s *authService) GrantAdmin(ctx context.Context, rawEmail string) (*Identity, error) {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	ident, err := s.identity.GrantAdmin(ctx, email)
	if err != nil {
		if errors.Is(err, ErrInvalidEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to grant admin to '%s': %w", email, err)
	}
	s.logger.Info("Admin claim granted", zap.String("uid", ident.UID), zap.String("email", email))
	return ident, nil
}
