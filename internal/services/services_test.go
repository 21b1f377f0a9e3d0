package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"amparo/internal/auth"
	"amparo/internal/authz"
	"amparo/internal/config"
	"amparo/internal/database"
)

type fixture struct {
	store     database.Store
	accounts  *AccountService
	donations *DonationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	store, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &fixture{
		store:     store,
		accounts:  NewAccountService(store, enforcer),
		donations: NewDonationService(store, enforcer),
	}
}

// register creates an account and returns its principal. kind is "0" for a patient and "1" for a caregiver.
func (f *fixture) register(t *testing.T, kind, name, email string) auth.Principal {
	t.Helper()
	ctx := context.Background()
	_, _, err := f.accounts.Register(ctx, RegisterInput{Kind: kind, Name: name, Email: email, Password: "senha123"})
	require.NoError(t, err)
	p, err := f.accounts.Authenticate(ctx, LoginInput{Kind: kind, Email: email, Password: "senha123"})
	require.NoError(t, err)
	return p
}
