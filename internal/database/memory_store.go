package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"amparo/internal/models"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

type memoryData struct {
	accounts map[models.Role]map[uint]models.Account
	requests map[uint]models.DonationRequest
	nextID   map[string]uint
}

func newMemoryData() *memoryData {
	return &memoryData{
		accounts: map[models.Role]map[uint]models.Account{
			models.RolePatient:   {},
			models.RoleCaregiver: {},
		},
		requests: map[uint]models.DonationRequest{},
		nextID:   map[string]uint{},
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for role, accts := range d.accounts {
		for id, a := range accts {
			c.accounts[role][id] = a
		}
	}
	for id, r := range d.requests {
		c.requests[id] = r
	}
	for k, v := range d.nextID {
		c.nextID[k] = v
	}
	return c
}

func (d *memoryData) allocate(seq string) uint {
	d.nextID[seq]++
	return d.nextID[seq]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

// memoryTx runs operations against data while the owning MemoryStore lock is held.
type memoryTx struct {
	data *memoryData
}

// WithinTx holds the store lock for the whole of fn and restores a snapshot when fn fails.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()
	return fn(&memoryTx{data: s.data})
}

func (s *MemoryStore) locked() (*memoryTx, func()) {
	s.mu.Lock()
	return &memoryTx{data: s.data}, s.mu.Unlock
}

func (s *MemoryStore) CreateAccount(ctx context.Context, role models.Role, acct *models.Account) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.CreateAccount(ctx, role, acct)
}

func (s *MemoryStore) GetAccount(ctx context.Context, role models.Role, id uint) (*models.Account, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.GetAccount(ctx, role, id)
}

func (s *MemoryStore) FindAccountByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.FindAccountByEmail(ctx, role, email)
}

// LockEmail is a no-op: WithinTx already holds the store lock.
func (s *MemoryStore) LockEmail(context.Context, string) error { return nil }

func (s *MemoryStore) LookupEmail(ctx context.Context, email string) ([]models.AccountRef, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.LookupEmail(ctx, email)
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, role models.Role, acct *models.Account) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.UpdateAccount(ctx, role, acct)
}

func (s *MemoryStore) DeleteAccount(ctx context.Context, role models.Role, id uint) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.DeleteAccount(ctx, role, id)
}

func (s *MemoryStore) CreateDonationRequest(ctx context.Context, req *models.DonationRequest) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.CreateDonationRequest(ctx, req)
}

func (s *MemoryStore) GetDonationRequest(ctx context.Context, id uint) (*models.DonationRequest, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.GetDonationRequest(ctx, id)
}

func (s *MemoryStore) ListDonationRequests(ctx context.Context) ([]models.DonationRequest, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.ListDonationRequests(ctx)
}

func (s *MemoryStore) ListDonationRequestsByOwner(ctx context.Context, ownerID uint) ([]models.DonationRequest, error) {
	tx, unlock := s.locked()
	defer unlock()
	return tx.ListDonationRequestsByOwner(ctx, ownerID)
}

func (s *MemoryStore) UpdateDonationRequest(ctx context.Context, req *models.DonationRequest) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.UpdateDonationRequest(ctx, req)
}

func (s *MemoryStore) DeleteDonationRequest(ctx context.Context, id uint) error {
	tx, unlock := s.locked()
	defer unlock()
	return tx.DeleteDonationRequest(ctx, id)
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

// Nested transactions share the outer one.
func (t *memoryTx) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) accountsOf(role models.Role) (map[uint]models.Account, error) {
	accts, ok := t.data.accounts[role]
	if !ok {
		return nil, ErrNotFound
	}
	return accts, nil
}

func (t *memoryTx) CreateAccount(_ context.Context, role models.Role, acct *models.Account) error {
	accts, err := t.accountsOf(role)
	if err != nil {
		return err
	}
	for _, a := range accts {
		if a.Email == acct.Email {
			return ErrDuplicate
		}
	}
	now := time.Now()
	acct.ID = t.data.allocate(string(role))
	acct.CreatedAt, acct.UpdatedAt = now, now
	accts[acct.ID] = *acct
	return nil
}

func (t *memoryTx) GetAccount(_ context.Context, role models.Role, id uint) (*models.Account, error) {
	accts, err := t.accountsOf(role)
	if err != nil {
		return nil, err
	}
	a, ok := accts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (t *memoryTx) FindAccountByEmail(_ context.Context, role models.Role, email string) (*models.Account, error) {
	accts, err := t.accountsOf(role)
	if err != nil {
		return nil, err
	}
	for _, a := range accts {
		if a.Email == email {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) LockEmail(context.Context, string) error { return nil }

func (t *memoryTx) LookupEmail(_ context.Context, email string) ([]models.AccountRef, error) {
	var refs []models.AccountRef
	for _, role := range []models.Role{models.RolePatient, models.RoleCaregiver} {
		for id, a := range t.data.accounts[role] {
			if a.Email == email {
				refs = append(refs, models.AccountRef{Role: role, ID: id})
			}
		}
	}
	return refs, nil
}

func (t *memoryTx) UpdateAccount(_ context.Context, role models.Role, acct *models.Account) error {
	accts, err := t.accountsOf(role)
	if err != nil {
		return err
	}
	current, ok := accts[acct.ID]
	if !ok {
		return ErrNotFound
	}
	for id, a := range accts {
		if id != acct.ID && a.Email == acct.Email {
			return ErrDuplicate
		}
	}
	current.Name = acct.Name
	current.Email = acct.Email
	current.PasswordHash = acct.PasswordHash
	current.UpdatedAt = time.Now()
	accts[acct.ID] = current
	*acct = current
	return nil
}

func (t *memoryTx) DeleteAccount(_ context.Context, role models.Role, id uint) error {
	accts, err := t.accountsOf(role)
	if err != nil {
		return err
	}
	if _, ok := accts[id]; !ok {
		return ErrNotFound
	}
	if role == models.RolePatient {
		for reqID, r := range t.data.requests {
			if r.OwnerID == id {
				delete(t.data.requests, reqID)
			}
		}
	}
	delete(accts, id)
	return nil
}

func (t *memoryTx) CreateDonationRequest(_ context.Context, req *models.DonationRequest) error {
	if _, ok := t.data.accounts[models.RolePatient][req.OwnerID]; !ok {
		return ErrNotFound
	}
	now := time.Now()
	req.ID = t.data.allocate("donation_requests")
	req.CreatedAt, req.UpdatedAt = now, now
	t.data.requests[req.ID] = *req
	return nil
}

func (t *memoryTx) GetDonationRequest(_ context.Context, id uint) (*models.DonationRequest, error) {
	r, ok := t.data.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (t *memoryTx) ListDonationRequests(_ context.Context) ([]models.DonationRequest, error) {
	return t.sorted(func(models.DonationRequest) bool { return true }), nil
}

func (t *memoryTx) ListDonationRequestsByOwner(_ context.Context, ownerID uint) ([]models.DonationRequest, error) {
	return t.sorted(func(r models.DonationRequest) bool { return r.OwnerID == ownerID }), nil
}

func (t *memoryTx) sorted(keep func(models.DonationRequest) bool) []models.DonationRequest {
	out := []models.DonationRequest{}
	for _, r := range t.data.requests {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (t *memoryTx) UpdateDonationRequest(_ context.Context, req *models.DonationRequest) error {
	current, ok := t.data.requests[req.ID]
	if !ok {
		return ErrNotFound
	}
	current.Item = req.Item
	current.Description = req.Description
	current.UrgencyLevel = req.UrgencyLevel
	current.ContactInfo = req.ContactInfo
	current.UpdatedAt = time.Now()
	t.data.requests[req.ID] = current
	*req = current
	return nil
}

func (t *memoryTx) DeleteDonationRequest(_ context.Context, id uint) error {
	if _, ok := t.data.requests[id]; !ok {
		return ErrNotFound
	}
	delete(t.data.requests, id)
	return nil
}

func (t *memoryTx) Ping(ctx context.Context) error { return ctx.Err() }

func (t *memoryTx) Close() error { return nil }
