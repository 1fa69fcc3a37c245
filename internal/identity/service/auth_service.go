package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	accountdomain "innovation-portal/backend/internal/account/domain"
	refreshdomain "innovation-portal/backend/internal/refreshtoken/domain"
	"innovation-portal/backend/internal/security"
)

// Sentinel errors for auth service; handler maps them to gRPC codes.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
)

// Password policy bounds, in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// TokenTypeBearer is the token_type returned with every token pair.
const TokenTypeBearer = "bearer"

// ValidationError reports which field failed the registration policy. It
// unwraps to ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// TokenPair is the result of Login and Refresh. ExpiresIn is the access token
// lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByEmail(ctx context.Context, email string) (*accountdomain.Account, error)
	Create(ctx context.Context, a *accountdomain.Account) error
}

// RefreshTokenRepo is the minimal refresh token repository needed by the auth service.
type RefreshTokenRepo interface {
	Create(ctx context.Context, t *refreshdomain.RefreshToken) error
	GetByID(ctx context.Context, jti string) (*refreshdomain.RefreshToken, error)
	Revoke(ctx context.Context, jti string) error
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithClock replaces time.Now as the source of issuance and validation times.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithMeter records register, login and refresh outcomes on meter.
func WithMeter(meter metric.Meter) Option {
	return func(s *AuthService) { s.meter = meter }
}

// AuthService implements password registration, login, access token refresh
// and logout.
type AuthService struct {
	accounts      AccountRepo
	refreshTokens RefreshTokenRepo
	hasher        *security.Hasher
	tokens        *security.TokenProvider
	now           func() time.Time
	meter         metric.Meter
	outcomes      metric.Int64Counter

	// dummyHash is verified against when the email is unknown so that both
	// login failure paths pay for one bcrypt comparison.
	dummyHash string
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	accounts AccountRepo,
	refreshTokens RefreshTokenRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	opts ...Option,
) (*AuthService, error) {
	s := &AuthService{
		accounts:      accounts,
		refreshTokens: refreshTokens,
		hasher:        hasher,
		tokens:        tokens,
		now:           time.Now,
		meter:         noop.NewMeterProvider().Meter("innovation-portal/identity"),
	}
	for _, opt := range opts {
		opt(s)
	}
	outcomes, err := s.meter.Int64Counter("identity.auth.outcomes",
		metric.WithDescription("Authentication operations by operation and outcome"))
	if err != nil {
		return nil, fmt.Errorf("create outcome counter: %w", err)
	}
	s.outcomes = outcomes

	dummy, err := hasher.Hash("dummy-password-for-timing-equalization")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

// Register creates an account with the given email and password and role
// user. Returns a *ValidationError when the input fails policy bounds and
// ErrEmailAlreadyRegistered when the email is taken.
func (s *AuthService) Register(ctx context.Context, email, password string) (*accountdomain.Account, error) {
	raw := email
	email = accountdomain.NormalizeEmail(email)
	if err := validateEmail(raw, email); err != nil {
		s.record(ctx, "register", "invalid_input")
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		s.record(ctx, "register", "invalid_input")
		return nil, err
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	acct := &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		Role:         accountdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		if errors.Is(err, accountdomain.ErrDuplicateEmail) {
			s.record(ctx, "register", "duplicate_email")
			return nil, ErrEmailAlreadyRegistered
		}
		s.record(ctx, "register", "error")
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.record(ctx, "register", "success")
	return acct, nil
}

// Login verifies email and password and returns a new token pair. An unknown
// email and a wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	acct, err := s.accounts.GetByEmail(ctx, accountdomain.NormalizeEmail(email))
	if err != nil {
		s.record(ctx, "login", "error")
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	hash := s.dummyHash
	if acct != nil {
		hash = acct.PasswordHash
	}
	if !s.hasher.Verify(password, hash) || acct == nil {
		s.record(ctx, "login", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	access, _, err := s.tokens.IssueAccess(acct.ID, string(acct.Role), now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, jti, refreshExp, err := s.tokens.IssueRefresh(now)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	record := &refreshdomain.RefreshToken{
		ID:        jti,
		AccountID: acct.ID,
		IssuedAt:  now,
		ExpiresAt: refreshExp,
	}
	if err := s.refreshTokens.Create(ctx, record); err != nil {
		s.record(ctx, "login", "error")
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	s.record(ctx, "login", "success")
	return s.pair(access, refresh), nil
}

// Refresh returns a new access token for a live, unrevoked refresh token. The
// access token carries the account's current role. The refresh token is
// returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	now := s.now().UTC()
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil || claims.ID == "" || !s.tokens.IsLive(claims, now) {
		s.record(ctx, "refresh", "invalid_token")
		return nil, ErrInvalidRefreshToken
	}
	record, err := s.refreshTokens.GetByID(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if record == nil || !record.IsUsable(now) {
		s.record(ctx, "refresh", "invalid_token")
		return nil, ErrInvalidRefreshToken
	}
	acct, err := s.accounts.GetByID(ctx, record.AccountID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if acct == nil {
		s.record(ctx, "refresh", "invalid_token")
		return nil, ErrInvalidRefreshToken
	}
	access, _, err := s.tokens.IssueAccess(acct.ID, string(acct.Role), now)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	s.record(ctx, "refresh", "success")
	return s.pair(access, refreshToken), nil
}

// Logout revokes the record behind refreshToken. Revoking an already revoked
// or unknown token is not an error; an undecodable token is.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Decode(refreshToken)
	if err != nil || claims.ID == "" {
		return ErrInvalidRefreshToken
	}
	if err := s.refreshTokens.Revoke(ctx, claims.ID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *AuthService) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}
}

func (s *AuthService) record(ctx context.Context, op, outcome string) {
	s.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

// validateEmail bounds the input as sent. Normalization never adds runes, so
// the stored value is within the bound too.
func validateEmail(raw, normalized string) error {
	if normalized == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if utf8.RuneCountInString(raw) > accountdomain.MaxEmailLength {
		return &ValidationError{Field: "email", Message: fmt.Sprintf("must be at most %d characters", accountdomain.MaxEmailLength)}
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be between %d and %d characters", MinPasswordLength, MaxPasswordLength)}
	}
	return nil
}
