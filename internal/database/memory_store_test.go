package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amparo/internal/models"
)

func seedPatient(t *testing.T, s Store, email string) *models.Account {
	t.Helper()
	acct := &models.Account{Name: "Paciente", Email: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateAccount(context.Background(), models.RolePatient, acct))
	return acct
}

func TestMemoryStoreAccounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p := seedPatient(t, s, "ana@example.com")
	assert.NotZero(t, p.ID)

	c := &models.Account{Name: "Cuidador", Email: "ana@example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateAccount(ctx, models.RoleCaregiver, c))

	err := s.CreateAccount(ctx, models.RolePatient, &models.Account{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	refs, err := s.LookupEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.AccountRef{
		{Role: models.RolePatient, ID: p.ID},
		{Role: models.RoleCaregiver, ID: c.ID},
	}, refs)

	found, err := s.FindAccountByEmail(ctx, models.RoleCaregiver, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	_, err = s.GetAccount(ctx, models.RolePatient, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	p.Name = "Ana Maria"
	require.NoError(t, s.UpdateAccount(ctx, models.RolePatient, p))
	got, err := s.GetAccount(ctx, models.RolePatient, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
}

func TestMemoryStoreDeletePatientCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	owner := seedPatient(t, s, "owner@example.com")
	other := seedPatient(t, s, "other@example.com")

	for _, ownerID := range []uint{owner.ID, owner.ID, other.ID} {
		require.NoError(t, s.CreateDonationRequest(ctx, &models.DonationRequest{
			Item: "Fraldas", UrgencyLevel: "alta", ContactInfo: "555", OwnerID: ownerID,
		}))
	}

	require.NoError(t, s.DeleteAccount(ctx, models.RolePatient, owner.ID))

	all, err := s.ListDonationRequests(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].OwnerID)

	assert.ErrorIs(t, s.DeleteAccount(ctx, models.RolePatient, owner.ID), ErrNotFound)
}

func TestMemoryStoreDonationRequestRequiresOwner(t *testing.T) {
	s := NewMemoryStore()
	err := s.CreateDonationRequest(context.Background(), &models.DonationRequest{Item: "x", OwnerID: 42})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx Store) error {
		seedPatient(t, tx, "tx@example.com")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	refs, err := s.LookupEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Empty(t, refs)

	require.NoError(t, s.WithinTx(ctx, func(tx Store) error {
		seedPatient(t, tx, "tx@example.com")
		return nil
	}))
	refs, err = s.LookupEmail(ctx, "tx@example.com")
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestMemoryStoreWithinTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	assert.Panics(t, func() {
		_ = s.WithinTx(ctx, func(tx Store) error {
			seedPatient(t, tx, "panic@example.com")
			panic("boom")
		})
	})

	refs, err := s.LookupEmail(ctx, "panic@example.com")
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestMemoryStoreUpdateAndDeleteRequest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	owner := seedPatient(t, s, "owner@example.com")

	req := &models.DonationRequest{Item: "Cadeira de rodas", UrgencyLevel: "media", ContactInfo: "555", OwnerID: owner.ID}
	require.NoError(t, s.CreateDonationRequest(ctx, req))

	req.Item = "Andador"
	require.NoError(t, s.UpdateDonationRequest(ctx, req))

	got, err := s.GetDonationRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Andador", got.Item)
	assert.Equal(t, owner.ID, got.OwnerID)

	require.NoError(t, s.DeleteDonationRequest(ctx, req.ID))
	assert.ErrorIs(t, s.DeleteDonationRequest(ctx, req.ID), ErrNotFound)
}
