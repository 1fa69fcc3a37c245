package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"innovation-portal/backend/internal/account/domain"
	accountrepo "innovation-portal/backend/internal/account/repository"
	identityservice "innovation-portal/backend/internal/identity/service"
)

// Seed outcomes.
const (
	outcomeCreated   = "created"
	outcomePromoted  = "promoted"
	outcomeUnchanged = "unchanged"
)

// registrar creates accounts with the same validation as the Register RPC.
type registrar interface {
	Register(ctx context.Context, email, password string) (*domain.Account, error)
}

// seedAdmin makes sure an admin account exists for email. A missing account is
// registered with password and promoted; an existing one is promoted and keeps
// its password. Safe to run repeatedly.
func seedAdmin(ctx context.Context, accounts accountrepo.Repository, reg registrar, email, password string, now time.Time) (string, *domain.Account, error) {
	email = domain.NormalizeEmail(email)
	acct, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("lookup account: %w", err)
	}

	outcome := outcomePromoted
	if acct == nil {
		acct, err = reg.Register(ctx, email, password)
		switch {
		case errors.Is(err, identityservice.ErrEmailAlreadyRegistered):
			// Registered concurrently; promote whatever is there now.
			if acct, err = accounts.GetByEmail(ctx, email); err != nil {
				return "", nil, fmt.Errorf("lookup account: %w", err)
			}
			if acct == nil {
				return "", nil, errors.New("account vanished after duplicate registration")
			}
		case err != nil:
			return "", nil, fmt.Errorf("register admin: %w", err)
		default:
			outcome = outcomeCreated
		}
	}

	if acct.Role == domain.RoleAdmin {
		if outcome == outcomeCreated {
			return outcome, acct, nil
		}
		return outcomeUnchanged, acct, nil
	}
	if err := accounts.UpdateRole(ctx, acct.ID, domain.RoleAdmin, now); err != nil {
		return "", nil, fmt.Errorf("promote admin: %w", err)
	}
	acct.Role = domain.RoleAdmin
	acct.UpdatedAt = now
	return outcome, acct, nil
}
