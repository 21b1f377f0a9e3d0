// Package services holds the account and donation request operations behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"amparo/internal/auth"
	"amparo/internal/authz"
	"amparo/internal/database"
	"amparo/internal/logging"
	"amparo/internal/metrics"
	"amparo/internal/models"
	"amparo/internal/validation"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Kind     string `label:"tipo" validate:"required,oneof=0 1"`
	Name     string `label:"nome" validate:"required,max=100"`
	Email    string `label:"email" validate:"required,email,max=150"`
	Password string `label:"senha" validate:"required,password"`
}

// LoginInput is the login form.
type LoginInput struct {
	Kind     string `label:"tipo" validate:"required,oneof=0 1"`
	Email    string `label:"email" validate:"required"`
	Password string `label:"senha" validate:"required"`
}

// ProfileInput is the profile edit form. NewPassword and ConfirmPassword are optional.
type ProfileInput struct {
	Name            string `label:"nome" validate:"required,max=100"`
	Email           string `label:"email" validate:"required,email,max=150"`
	CurrentPassword string `label:"senha atual" validate:"required"`
	NewPassword     string `label:"nova senha"`
	ConfirmPassword string `label:"confirmação de senha"`
}

// AccountService registers, authenticates, edits and deletes accounts.
type AccountService struct {
	store    database.Store
	enforcer *authz.Enforcer
}

// NewAccountService creates an AccountService.
func NewAccountService(store database.Store, enforcer *authz.Enforcer) *AccountService {
	return &AccountService{store: store, enforcer: enforcer}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailHeldByOther reports whether any account other than self holds email.
func emailHeldByOther(ctx context.Context, tx database.Store, email string, self *models.AccountRef) (bool, error) {
	refs, err := tx.LookupEmail(ctx, email)
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		if self == nil || ref != *self {
			return true, nil
		}
	}
	return false, nil
}

// Register creates an account of the requested kind.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, models.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return nil, "", err
	}
	role, err := models.ParseAccountKind(in.Kind)
	if err != nil {
		return nil, "", &ValidationError{Message: "Tipo de conta inválido", Err: err}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	acct := &models.Account{Name: in.Name, Email: in.Email, PasswordHash: hash}
	err = s.store.WithinTx(ctx, func(tx database.Store) error {
		if err := tx.LockEmail(ctx, in.Email); err != nil {
			return err
		}
		taken, err := emailHeldByOther(ctx, tx, in.Email, nil)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}
		return tx.CreateAccount(ctx, role, acct)
	})
	if err != nil {
		return nil, "", storeErr(err)
	}

	metrics.Registrations.WithLabelValues(role.String()).Inc()
	logging.Ctx(ctx).Info().Str("role", role.String()).Uint("account_id", acct.ID).Msg("account registered")
	return acct, role, nil
}

// Authenticate checks the credentials of an account of the declared kind. Every
// failure returns ErrInvalidCredentials so callers cannot tell which part was wrong.
func (s *AccountService) Authenticate(ctx context.Context, in LoginInput) (auth.Principal, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		auth.BurnPasswordCheck(in.Password)
		metrics.LoginAttempts.WithLabelValues("unknown", "invalid").Inc()
		return auth.Principal{}, ErrInvalidCredentials
	}
	role, err := models.ParseAccountKind(in.Kind)
	if err != nil {
		auth.BurnPasswordCheck(in.Password)
		metrics.LoginAttempts.WithLabelValues("unknown", "invalid").Inc()
		return auth.Principal{}, ErrInvalidCredentials
	}

	acct, err := s.store.FindAccountByEmail(ctx, role, in.Email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		auth.BurnPasswordCheck(in.Password)
		metrics.LoginAttempts.WithLabelValues(role.String(), "failure").Inc()
		return auth.Principal{}, ErrInvalidCredentials
	case err != nil:
		return auth.Principal{}, fmt.Errorf("find account: %w", err)
	}

	if !auth.CheckPassword(in.Password, acct.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues(role.String(), "failure").Inc()
		return auth.Principal{}, ErrInvalidCredentials
	}

	metrics.LoginAttempts.WithLabelValues(role.String(), "success").Inc()
	return principalFor(role, acct), nil
}

func principalFor(role models.Role, acct *models.Account) auth.Principal {
	return auth.Principal{AccountID: acct.ID, Role: role, Name: acct.Name, Email: acct.Email}
}

// Profile returns the caller's account.
func (s *AccountService) Profile(ctx context.Context, p auth.Principal) (*models.Account, error) {
	if !s.enforcer.Allowed(p.Role, authz.ResourceProfile, authz.ActionRead) {
		return nil, ErrRoleNotAllowed
	}
	acct, err := s.store.GetAccount(ctx, p.Role, p.AccountID)
	if err != nil {
		return nil, storeErr(err)
	}
	return acct, nil
}

// EditProfile updates name, email and optionally the password of the caller. The
// current password is checked before anything else is looked at. The returned
// principal carries the new name and email.
func (s *AccountService) EditProfile(ctx context.Context, p auth.Principal, in ProfileInput) (auth.Principal, error) {
	if !s.enforcer.Allowed(p.Role, authz.ResourceProfile, authz.ActionWrite) {
		return auth.Principal{}, ErrRoleNotAllowed
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return auth.Principal{}, err
	}

	var updated *models.Account
	err := s.store.WithinTx(ctx, func(tx database.Store) error {
		acct, err := tx.GetAccount(ctx, p.Role, p.AccountID)
		if err != nil {
			return err
		}
		if !auth.CheckPassword(in.CurrentPassword, acct.PasswordHash) {
			return ErrWrongPassword
		}

		if in.NewPassword != "" || in.ConfirmPassword != "" {
			if in.NewPassword != in.ConfirmPassword {
				return ErrPasswordMismatch
			}
			if !validation.PasswordAcceptable(in.NewPassword) {
				return invalid(fmt.Sprintf("A senha deve ter pelo menos %d caracteres e conter ao menos um número", validation.PasswordMinLength))
			}
			hash, err := auth.HashPassword(in.NewPassword)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			acct.PasswordHash = hash
		}

		if in.Email != acct.Email {
			if err := tx.LockEmail(ctx, in.Email); err != nil {
				return err
			}
			self := models.AccountRef{Role: p.Role, ID: acct.ID}
			taken, err := emailHeldByOther(ctx, tx, in.Email, &self)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailTaken
			}
		}

		acct.Name = in.Name
		acct.Email = in.Email
		if err := tx.UpdateAccount(ctx, p.Role, acct); err != nil {
			return err
		}
		updated = acct
		return nil
	})
	if err != nil {
		return auth.Principal{}, storeErr(err)
	}

	logging.Ctx(ctx).Info().Str("role", p.Role.String()).Uint("account_id", p.AccountID).Msg("profile updated")
	return principalFor(p.Role, updated), nil
}

// DeleteAccount removes the caller's account. A patient's donation requests go with it.
func (s *AccountService) DeleteAccount(ctx context.Context, p auth.Principal) error {
	if !s.enforcer.Allowed(p.Role, authz.ResourceProfile, authz.ActionWrite) {
		return ErrRoleNotAllowed
	}
	err := s.store.WithinTx(ctx, func(tx database.Store) error {
		return tx.DeleteAccount(ctx, p.Role, p.AccountID)
	})
	if err != nil {
		return storeErr(err)
	}

	metrics.AccountDeletions.WithLabelValues(p.Role.String()).Inc()
	logging.Ctx(ctx).Info().Str("role", p.Role.String()).Uint("account_id", p.AccountID).Msg("account deleted")
	return nil
}
