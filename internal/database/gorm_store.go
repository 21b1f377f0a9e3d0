package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"amparo/internal/models"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the tables of the three record kinds.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.Patient{}, &models.Caregiver{}, &models.DonationRequest{})
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// accountModel returns a fresh record of the table that stores role.
func accountModel(role models.Role) (interface{}, *models.Account, error) {
	switch role {
	case models.RolePatient:
		p := &models.Patient{}
		return p, &p.Account, nil
	case models.RoleCaregiver:
		c := &models.Caregiver{}
		return c, &c.Account, nil
	default:
		return nil, nil, fmt.Errorf("unknown role %q", role)
	}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// isUniqueViolation catches unique index errors a dialector did not translate.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func (s *GormStore) CreateAccount(ctx context.Context, role models.Role, acct *models.Account) error {
	record, inner, err := accountModel(role)
	if err != nil {
		return err
	}
	*inner = *acct
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return translate(err)
	}
	*acct = *inner
	return nil
}

func (s *GormStore) GetAccount(ctx context.Context, role models.Role, id uint) (*models.Account, error) {
	record, inner, err := accountModel(role)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).First(record, id).Error; err != nil {
		return nil, translate(err)
	}
	return inner, nil
}

func (s *GormStore) FindAccountByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	record, inner, err := accountModel(role)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(record).Error; err != nil {
		return nil, translate(err)
	}
	return inner, nil
}

// LockEmail takes a transaction-scoped advisory lock on postgres. Two registrations of one
// email under different roles land in different tables, so no unique index can stop them.
// SQLite serializes writers on its own.
func (s *GormStore) LockEmail(ctx context.Context, email string) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	return s.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", email).Error
}

func (s *GormStore) LookupEmail(ctx context.Context, email string) ([]models.AccountRef, error) {
	var refs []models.AccountRef
	for _, role := range []models.Role{models.RolePatient, models.RoleCaregiver} {
		record, _, _ := accountModel(role)
		var ids []uint
		if err := s.db.WithContext(ctx).Model(record).Where("email = ?", email).Pluck("id", &ids).Error; err != nil {
			return nil, translate(err)
		}
		for _, id := range ids {
			refs = append(refs, models.AccountRef{Role: role, ID: id})
		}
	}
	return refs, nil
}

func (s *GormStore) UpdateAccount(ctx context.Context, role models.Role, acct *models.Account) error {
	record, _, err := accountModel(role)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(record).Where("id = ?", acct.ID).Updates(map[string]interface{}{
		"name":          acct.Name,
		"email":         acct.Email,
		"password_hash": acct.PasswordHash,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteAccount(ctx context.Context, role models.Role, id uint) error {
	record, _, err := accountModel(role)
	if err != nil {
		return err
	}
	return s.WithinTx(ctx, func(tx Store) error {
		db := tx.(*GormStore).db
		if role == models.RolePatient {
			if err := db.Where("owner_id = ?", id).Delete(&models.DonationRequest{}).Error; err != nil {
				return translate(err)
			}
		}
		res := db.Delete(record, id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *GormStore) CreateDonationRequest(ctx context.Context, req *models.DonationRequest) error {
	return translate(s.db.WithContext(ctx).Create(req).Error)
}

func (s *GormStore) GetDonationRequest(ctx context.Context, id uint) (*models.DonationRequest, error) {
	var req models.DonationRequest
	if err := s.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (s *GormStore) ListDonationRequests(ctx context.Context) ([]models.DonationRequest, error) {
	var reqs []models.DonationRequest
	if err := s.db.WithContext(ctx).Order("id asc").Find(&reqs).Error; err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (s *GormStore) ListDonationRequestsByOwner(ctx context.Context, ownerID uint) ([]models.DonationRequest, error) {
	var reqs []models.DonationRequest
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id asc").Find(&reqs).Error; err != nil {
		return nil, translate(err)
	}
	return reqs, nil
}

func (s *GormStore) UpdateDonationRequest(ctx context.Context, req *models.DonationRequest) error {
	res := s.db.WithContext(ctx).Model(&models.DonationRequest{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"item":          req.Item,
		"description":   req.Description,
		"urgency_level": req.UrgencyLevel,
		"contact_info":  req.ContactInfo,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteDonationRequest(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.DonationRequest{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
