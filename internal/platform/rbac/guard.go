package rbac

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"innovation-portal/backend/internal/account/domain"
	"innovation-portal/backend/internal/security"
)

var (
	// ErrUnauthorized matches every rejection raised before the role check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches a rejection raised by the role check.
	ErrForbidden = errors.New("forbidden")
)

// Reason says why a request was rejected.
type Reason string

const (
	ReasonMissingHeader    Reason = "missing_header"
	ReasonMalformedHeader  Reason = "malformed_header"
	ReasonInvalidToken     Reason = "invalid_token"
	ReasonExpiredOrInvalid Reason = "expired_or_invalid"
	ReasonUnknownSubject   Reason = "unknown_subject"
	ReasonForbidden        Reason = "forbidden"
)

// Rejection is the terminal error of a failed guard evaluation. It unwraps to
// ErrForbidden for ReasonForbidden and to ErrUnauthorized otherwise.
type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string { return "access rejected: " + string(r.Reason) }

func (r *Rejection) Unwrap() error {
	if r.Forbidden() {
		return ErrForbidden
	}
	return ErrUnauthorized
}

// Forbidden reports whether the caller authenticated but lacks the role.
func (r *Rejection) Forbidden() bool { return r.Reason == ReasonForbidden }

func reject(reason Reason) error { return &Rejection{Reason: reason} }

// AccountGetter resolves the subject of an access token.
type AccountGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// RoleChecker decides whether role is a member of allowed.
type RoleChecker interface {
	Allowed(ctx context.Context, role domain.Role, allowed []domain.Role) (bool, error)
}

// StaticRoleChecker allows a role iff it appears in the allowed set.
type StaticRoleChecker struct{}

func (StaticRoleChecker) Allowed(_ context.Context, role domain.Role, allowed []domain.Role) (bool, error) {
	return role.OneOf(allowed...), nil
}

// Check evaluates the raw authorization header of one request.
type Check func(ctx context.Context, header string) (*domain.Account, error)

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithRoleChecker replaces the StaticRoleChecker.
func WithRoleChecker(rc RoleChecker) GuardOption {
	return func(g *Guard) { g.roles = rc }
}

// WithGuardClock replaces time.Now as the liveness reference.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// Guard authenticates bearer tokens and enforces role membership. The role is
// always re-read from the account store; the token's role claim is ignored.
type Guard struct {
	tokens   *security.TokenProvider
	accounts AccountGetter
	roles    RoleChecker
	now      func() time.Time
}

// NewGuard returns a Guard resolving subjects through accounts.
func NewGuard(tokens *security.TokenProvider, accounts AccountGetter, opts ...GuardOption) *Guard {
	g := &Guard{
		tokens:   tokens,
		accounts: accounts,
		roles:    StaticRoleChecker{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Require returns a Check that admits callers whose current role is one of
// allowed. With no roles the Check only authenticates.
func (g *Guard) Require(allowed ...domain.Role) Check {
	allowed = slices.Clone(allowed)
	return func(ctx context.Context, header string) (*domain.Account, error) {
		return g.Authorize(ctx, header, allowed...)
	}
}

// Authorize evaluates header and returns the caller's account. Rejections are
// *Rejection values; store failures are returned wrapped and are neither
// ErrUnauthorized nor ErrForbidden.
func (g *Guard) Authorize(ctx context.Context, header string, allowed ...domain.Role) (*domain.Account, error) {
	if header == "" {
		return nil, reject(ReasonMissingHeader)
	}
	token, ok := ParseBearer(header)
	if !ok {
		return nil, reject(ReasonMalformedHeader)
	}
	claims, err := g.tokens.Decode(token)
	if err != nil {
		return nil, reject(ReasonInvalidToken)
	}
	if !g.tokens.IsLive(claims, g.now()) {
		return nil, reject(ReasonExpiredOrInvalid)
	}
	if claims.Subject == "" {
		return nil, reject(ReasonUnknownSubject)
	}
	acct, err := g.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve token subject: %w", err)
	}
	if acct == nil {
		return nil, reject(ReasonUnknownSubject)
	}
	if len(allowed) == 0 {
		return acct, nil
	}
	permitted, err := g.roles.Allowed(ctx, acct.Role, allowed)
	if err != nil {
		return nil, fmt.Errorf("evaluate role: %w", err)
	}
	if !permitted {
		return nil, reject(ReasonForbidden)
	}
	return acct, nil
}

// ParseBearer splits a "Bearer <token>" header. The scheme is matched
// case-insensitively and the header must hold exactly two fields.
func ParseBearer(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "bearer") {
		return "", false
	}
	return fields[1], true
}
