package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"jyotai-backend/internal/core"
	"jyotai-backend/internal/mailer"
)

// Identity is a fake core.IdentityProvider. Tokens and session cookies are registered up front.
type Identity struct {
	mu       sync.Mutex
	byEmail  map[string]*core.Identity
	tokens   map[string]*core.Identity
	sessions map[string]*core.Identity
	nextUID  int

	// VerifyCalls counts VerifySession calls.
	VerifyCalls int
	// EnsureCalls counts EnsureUser calls.
	EnsureCalls int
	// LinkErr, when set, is returned by SignInLink.
	LinkErr error
}

// NewIdentity creates an empty fake identity provider.
func NewIdentity() *Identity {
	return &Identity{
		byEmail:  map[string]*core.Identity{},
		tokens:   map[string]*core.Identity{},
		sessions: map[string]*core.Identity{},
	}
}

// AddSession registers a session cookie for ident.
func (f *Identity) AddSession(cookie string, ident core.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := ident
	f.sessions[cookie] = &cp
	if ident.Email != "" {
		f.byEmail[ident.Email] = &cp
	}
}

// AddToken registers an ID token for ident.
func (f *Identity) AddToken(token string, ident core.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := ident
	f.tokens[token] = &cp
}

func (f *Identity) EnsureUser(_ context.Context, email, name string) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnsureCalls++
	if ident, ok := f.byEmail[email]; ok {
		cp := *ident
		return &cp, nil
	}
	f.nextUID++
	ident := &core.Identity{UID: fmt.Sprintf("uid%07d", f.nextUID), Email: email, Name: name}
	f.byEmail[email] = ident
	cp := *ident
	return &cp, nil
}

func (f *Identity) VerifyIDToken(_ context.Context, token string) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ident, ok := f.tokens[token]; ok {
		cp := *ident
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: unknown token", core.ErrUnauthorized)
}

func (f *Identity) CreateSession(_ context.Context, token string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ident, ok := f.tokens[token]
	if !ok {
		return "", fmt.Errorf("%w: unknown token", core.ErrUnauthorized)
	}
	cookie := "session-" + token
	f.sessions[cookie] = ident
	return cookie, nil
}

func (f *Identity) VerifySession(_ context.Context, cookie string) (*core.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VerifyCalls++
	if ident, ok := f.sessions[cookie]; ok {
		cp := *ident
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: unknown session", core.ErrUnauthorized)
}

func (f *Identity) SignInLink(_ context.Context, email, continueURL string) (string, error) {
	if f.LinkErr != nil {
		return "", f.LinkErr
	}
	return continueURL + "?oobCode=test&email=" + email, nil
}

func (f *Identity) GrantAdmin(ctx context.Context, email string) (*core.Identity, error) {
	ident, err := f.EnsureUser(ctx, email, "")
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byEmail[email].IsAdmin = true
	ident.IsAdmin = true
	return ident, nil
}

// Gateway is a fake core.OrderGateway that records requests.
type Gateway struct {
	mu       sync.Mutex
	Requests []core.OrderRequest
	Err      error
}

func (g *Gateway) CreateOrder(_ context.Context, req core.OrderRequest) (*core.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return nil, g.Err
	}
	g.Requests = append(g.Requests, req)
	return &core.Order{
		ID:       fmt.Sprintf("order_%d", len(g.Requests)),
		Amount:   req.Amount,
		Currency: req.Currency,
		Notes:    req.Notes,
	}, nil
}

// Mailer records sent messages.
type Mailer struct {
	mu   sync.Mutex
	Sent []mailer.Message
	Err  error
}

func (m *Mailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient email address cannot be empty")
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Count returns the number of messages sent so far.
func (m *Mailer) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
