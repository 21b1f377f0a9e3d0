package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amparo/internal/config"
	"amparo/internal/models"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// drivers returns a fresh store per driver so every contract test runs against each.
func drivers(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStoreAccountsContract(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p := seedPatient(t, s, "ana@example.com")
			c := &models.Account{Name: "Cuidadora", Email: "ana@example.com", PasswordHash: "hash"}
			require.NoError(t, s.CreateAccount(ctx, models.RoleCaregiver, c))

			err := s.CreateAccount(ctx, models.RolePatient, &models.Account{Name: "Outra", Email: "ana@example.com", PasswordHash: "hash"})
			assert.ErrorIs(t, err, ErrDuplicate, "unique index per table")

			refs, err := s.LookupEmail(ctx, "ana@example.com")
			require.NoError(t, err)
			assert.ElementsMatch(t, []models.AccountRef{
				{Role: models.RolePatient, ID: p.ID},
				{Role: models.RoleCaregiver, ID: c.ID},
			}, refs)

			refs, err = s.LookupEmail(ctx, "ninguem@example.com")
			require.NoError(t, err)
			assert.Empty(t, refs)

			found, err := s.FindAccountByEmail(ctx, models.RoleCaregiver, "ana@example.com")
			require.NoError(t, err)
			assert.Equal(t, c.ID, found.ID)
			assert.Equal(t, "Cuidadora", found.Name)

			_, err = s.GetAccount(ctx, models.RolePatient, 999)
			assert.ErrorIs(t, err, ErrNotFound)

			p.Name = "Ana Maria"
			p.Email = "anamaria@example.com"
			p.PasswordHash = "new-hash"
			require.NoError(t, s.UpdateAccount(ctx, models.RolePatient, p))
			got, err := s.GetAccount(ctx, models.RolePatient, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "Ana Maria", got.Name)
			assert.Equal(t, "anamaria@example.com", got.Email)
			assert.Equal(t, "new-hash", got.PasswordHash)

			other := seedPatient(t, s, "caio@example.com")
			other.Email = "anamaria@example.com"
			assert.ErrorIs(t, s.UpdateAccount(ctx, models.RolePatient, other), ErrDuplicate)

			missing := &models.Account{ID: 999, Name: "x", Email: "x@example.com", PasswordHash: "h"}
			assert.ErrorIs(t, s.UpdateAccount(ctx, models.RolePatient, missing), ErrNotFound)
		})
	}
}

func TestStoreDeleteAccountContract(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			owner := seedPatient(t, s, "owner@example.com")
			keep := seedPatient(t, s, "keep@example.com")
			caregiver := &models.Account{Name: "Cuidador", Email: "c@example.com", PasswordHash: "hash"}
			require.NoError(t, s.CreateAccount(ctx, models.RoleCaregiver, caregiver))

			for _, id := range []uint{owner.ID, owner.ID, keep.ID} {
				req := &models.DonationRequest{Item: "Fraldas", UrgencyLevel: "alta", ContactInfo: "x", OwnerID: id}
				require.NoError(t, s.CreateDonationRequest(ctx, req))
				assert.NotZero(t, req.ID)
			}

			require.NoError(t, s.DeleteAccount(ctx, models.RoleCaregiver, caregiver.ID))
			all, err := s.ListDonationRequests(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3, "a caregiver owns no requests")

			require.NoError(t, s.DeleteAccount(ctx, models.RolePatient, owner.ID))
			all, err = s.ListDonationRequests(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, keep.ID, all[0].OwnerID)

			_, err = s.GetAccount(ctx, models.RolePatient, owner.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteAccount(ctx, models.RolePatient, owner.ID), ErrNotFound)
		})
	}
}

func TestStoreDonationRequestsContract(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ana := seedPatient(t, s, "ana@example.com")
			caio := seedPatient(t, s, "caio@example.com")

			first := &models.DonationRequest{Item: "Muletas", Description: "Par", UrgencyLevel: "baixa", ContactInfo: "1", OwnerID: ana.ID}
			second := &models.DonationRequest{Item: "Fraldas", UrgencyLevel: "alta", ContactInfo: "2", OwnerID: ana.ID}
			third := &models.DonationRequest{Item: "Cadeira", UrgencyLevel: "media", ContactInfo: "3", OwnerID: caio.ID}
			for _, r := range []*models.DonationRequest{first, second, third} {
				require.NoError(t, s.CreateDonationRequest(ctx, r))
			}

			own, err := s.ListDonationRequestsByOwner(ctx, ana.ID)
			require.NoError(t, err)
			require.Len(t, own, 2)
			assert.Equal(t, first.ID, own[0].ID)
			assert.Equal(t, second.ID, own[1].ID)
			assert.Equal(t, "Par", own[0].Description)

			second.Item = "Fraldas G"
			second.UrgencyLevel = "media"
			require.NoError(t, s.UpdateDonationRequest(ctx, second))
			got, err := s.GetDonationRequest(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, "Fraldas G", got.Item)
			assert.Equal(t, "media", got.UrgencyLevel)
			assert.Equal(t, ana.ID, got.OwnerID)

			require.NoError(t, s.DeleteDonationRequest(ctx, first.ID))
			_, err = s.GetDonationRequest(ctx, first.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteDonationRequest(ctx, first.ID), ErrNotFound)
		})
	}
}

func TestStoreWithinTxRollsBackContract(t *testing.T) {
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			errAbort := errors.New("abort")

			err := s.WithinTx(ctx, func(tx Store) error {
				require.NoError(t, tx.LockEmail(ctx, "tx@example.com"))
				acct := &models.Account{Name: "Tx", Email: "tx@example.com", PasswordHash: "hash"}
				if err := tx.CreateAccount(ctx, models.RolePatient, acct); err != nil {
					return err
				}
				return errAbort
			})
			assert.ErrorIs(t, err, errAbort)

			refs, err := s.LookupEmail(ctx, "tx@example.com")
			require.NoError(t, err)
			assert.Empty(t, refs)

			require.NoError(t, s.WithinTx(ctx, func(tx Store) error {
				return tx.CreateAccount(ctx, models.RoleCaregiver, &models.Account{Name: "Tx", Email: "tx@example.com", PasswordHash: "hash"})
			}))
			refs, err = s.LookupEmail(ctx, "tx@example.com")
			require.NoError(t, err)
			assert.Len(t, refs, 1)
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	dsn, inMemory := sqliteDSN(":memory:")
	assert.True(t, inMemory)
	assert.Equal(t, "file::memory:?_pragma=foreign_keys(1)", dsn)

	dsn, inMemory = sqliteDSN("data/amparo.db?_pragma=busy_timeout(5000)")
	assert.False(t, inMemory)
	assert.Equal(t, "data/amparo.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dsn)
}
