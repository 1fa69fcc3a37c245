package interceptors

import (
	"context"

	"innovation-portal/backend/internal/account/domain"
)

type contextKey struct{ name string }

var (
	accountKey   = contextKey{"account"}
	principalKey = contextKey{"principal"}
)

// principal is filled in by WithAccount so that interceptors running before
// authentication can see who the caller turned out to be.
type principal struct {
	account *domain.Account
}

// withPrincipal returns a context carrying an empty principal and the principal itself.
func withPrincipal(ctx context.Context) (context.Context, *principal) {
	p := &principal{}
	return context.WithValue(ctx, principalKey, p), p
}

// WithAccount returns a context carrying the authenticated account.
// Handlers read it via GetAccount. An enclosing principal is updated too.
func WithAccount(ctx context.Context, acct *domain.Account) context.Context {
	if p, ok := ctx.Value(principalKey).(*principal); ok {
		p.account = acct
	}
	return context.WithValue(ctx, accountKey, acct)
}

// GetAccount returns the account from context and true if set; otherwise nil, false.
func GetAccount(ctx context.Context) (*domain.Account, bool) {
	v, ok := ctx.Value(accountKey).(*domain.Account)
	return v, ok && v != nil
}
