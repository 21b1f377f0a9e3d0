package database

import (
	"context"
	"errors"

	"amparo/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence contract used by the services.
type Store interface {
	// WithinTx runs fn inside one transaction. It commits when fn returns nil and
	// rolls back on error or panic.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateAccount(ctx context.Context, role models.Role, acct *models.Account) error
	GetAccount(ctx context.Context, role models.Role, id uint) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	// LockEmail serializes registrations and email changes of email until the
	// surrounding transaction ends. It must be called inside WithinTx.
	LockEmail(ctx context.Context, email string) error
	// LookupEmail returns every account, of either role, registered with email.
	LookupEmail(ctx context.Context, email string) ([]models.AccountRef, error)
	UpdateAccount(ctx context.Context, role models.Role, acct *models.Account) error
	// DeleteAccount removes the account. Deleting a patient also removes its donation requests.
	DeleteAccount(ctx context.Context, role models.Role, id uint) error

	CreateDonationRequest(ctx context.Context, req *models.DonationRequest) error
	GetDonationRequest(ctx context.Context, id uint) (*models.DonationRequest, error)
	ListDonationRequests(ctx context.Context) ([]models.DonationRequest, error)
	ListDonationRequestsByOwner(ctx context.Context, ownerID uint) ([]models.DonationRequest, error)
	UpdateDonationRequest(ctx context.Context, req *models.DonationRequest) error
	DeleteDonationRequest(ctx context.Context, id uint) error

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
	_ Store = (*memoryTx)(nil)
)
