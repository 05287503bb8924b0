package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
	"go.uber.org/zap"
)

// Config holds the protocol settings of the auth service
type Config struct {
	Domain   string        // Domain challenge messages must name
	Issuer   string        // Issuer of identity tokens
	TokenTTL time.Duration // Identity token lifetime
}

// AuthService handles authentication business logic
type AuthService struct {
	sessions ports.SessionStore
	registry ports.Registry
	eventPub ports.EventPublisher
	nonces   *NonceManager
	verifier *Verifier
	minter   *Minter
	logger   *zap.Logger
	now      func() time.Time

	newHandle func() (string, error)
}

// NewAuthService creates a new authentication service
func NewAuthService(
	cfg Config,
	sessions ports.SessionStore,
	registry ports.Registry,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		sessions:  sessions,
		registry:  registry,
		eventPub:  eventPub,
		nonces:    NewNonceManager(sessions),
		verifier:  NewVerifier(sessions, cfg.Domain),
		minter:    NewMinter(registry, tokenizer, cfg.Issuer, cfg.TokenTTL),
		logger:    logger,
		now:       time.Now,
		newHandle: GenerateHandle,
	}
}

// IssueNonce binds a new sign-in nonce to the session
func (s *AuthService) IssueNonce(ctx context.Context, handle string) (string, error) {
	nonce, err := s.nonces.IssueNonce(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("failed to issue nonce: %w", err)
	}
	return nonce, nil
}

// SignIn verifies a signed challenge and, on success, moves the session to
// a freshly generated handle carrying the address. The handle the challenge
// was bound to is left unauthenticated; callers must hand the returned
// handle back to the client.
func (s *AuthService) SignIn(ctx context.Context, handle string, message core.ChallengeMessage, signature string) (string, string, error) {
	if err := message.Validate(); err != nil {
		return "", "", err
	}
	if signature == "" {
		return "", "", fmt.Errorf("%w: signature is required", core.ErrInvalidInput)
	}

	address, err := s.verifier.Verify(ctx, handle, message, signature, s.now())
	if err != nil {
		if core.IsVerificationError(err) {
			s.logger.Warn("sign-in rejected",
				zap.String("session", core.HashHandle(handle)),
				zap.Error(err),
			)
		}
		return "", "", err
	}

	rotated, err := s.newHandle()
	if err != nil {
		return "", "", err
	}
	if err := s.sessions.SetAddress(ctx, rotated, address); err != nil {
		return "", "", fmt.Errorf("failed to store session address: %w", err)
	}
	if err := s.sessions.ClearAddress(ctx, handle); err != nil {
		return "", "", fmt.Errorf("failed to clear previous session: %w", err)
	}

	s.logger.Info("signed in",
		zap.String("address", address),
		zap.String("session", core.HashHandle(rotated)),
	)

	if err := s.eventPub.PublishLogin(ctx, address, core.HashHandle(rotated)); err != nil {
		s.logger.Warn("failed to publish login event", zap.Error(err))
	}

	return address, rotated, nil
}

// HasSession reports whether the store holds a live nonce or address for
// handle. Handles it does not know were never issued or have expired.
func (s *AuthService) HasSession(ctx context.Context, handle string) (bool, error) {
	session, err := s.sessions.Get(ctx, handle)
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}
	return session.Nonce != "" || session.Authenticated(), nil
}

// CurrentAddress returns the verified address of the session, or
// core.ErrUnauthenticated.
func (s *AuthService) CurrentAddress(ctx context.Context, handle string) (string, error) {
	session, err := s.sessions.Get(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if !session.Authenticated() {
		return "", core.ErrUnauthenticated
	}
	return session.Address, nil
}

// App returns a registered application
func (s *AuthService) App(appID string) (core.AppConfig, error) {
	return s.registry.Lookup(appID)
}

// IssueToken mints an identity token for appID on behalf of the session.
// A non-empty redirectURI must equal the app's registered redirect URI.
func (s *AuthService) IssueToken(ctx context.Context, handle, appID, redirectURI string) (string, core.AppConfig, error) {
	address, err := s.CurrentAddress(ctx, handle)
	if err != nil {
		return "", core.AppConfig{}, err
	}

	app, err := s.registry.Lookup(appID)
	if err != nil {
		return "", core.AppConfig{}, err
	}
	if redirectURI != "" && redirectURI != app.RedirectURI {
		return "", core.AppConfig{}, core.ErrRedirectMismatch
	}

	token, claim, err := s.minter.Mint(address, app.ID, s.now())
	if err != nil {
		return "", core.AppConfig{}, err
	}

	if err := s.eventPub.PublishTokenIssued(ctx, claim.Subject, claim.Audience, claim.ID, claim.ExpiresAt); err != nil {
		s.logger.Warn("failed to publish token event", zap.Error(err))
	}

	return token, app, nil
}

// RedirectURL mints a token and returns the app's registered redirect URI
// carrying it, plus state when given.
func (s *AuthService) RedirectURL(ctx context.Context, handle, appID, state string) (string, error) {
	token, app, err := s.IssueToken(ctx, handle, appID, "")
	if err != nil {
		return "", err
	}

	u, err := url.Parse(app.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: app %q redirect uri: %w", core.ErrConfiguration, app.ID, err)
	}
	query := u.Query()
	if state != "" {
		query.Set("state", state)
	}
	query.Set("token", token)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

// Logout clears the session address. A pending nonce is left alone.
func (s *AuthService) Logout(ctx context.Context, handle string) error {
	session, err := s.sessions.Get(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if err := s.sessions.ClearAddress(ctx, handle); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if session.Authenticated() {
		if err := s.eventPub.PublishLogout(ctx, session.Address); err != nil {
			s.logger.Warn("failed to publish logout event", zap.Error(err))
		}
	}

	return nil
}
