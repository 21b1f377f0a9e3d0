package services

import (
	"context"
	"strconv"
	"strings"

	"amparo/internal/auth"
	"amparo/internal/authz"
	"amparo/internal/database"
	"amparo/internal/logging"
	"amparo/internal/metrics"
	"amparo/internal/models"
)

// DonationInput is the create/edit form of a donation request.
type DonationInput struct {
	Item         string `label:"item" validate:"required,max=150"`
	Description  string `label:"descrição" validate:"max=2000"`
	UrgencyLevel string `label:"urgência" validate:"required,max=50"`
	ContactInfo  string `label:"contato" validate:"required,max=150"`
}

func (in *DonationInput) normalize() {
	in.Item = strings.TrimSpace(in.Item)
	in.Description = strings.TrimSpace(in.Description)
	in.UrgencyLevel = strings.TrimSpace(in.UrgencyLevel)
	in.ContactInfo = strings.TrimSpace(in.ContactInfo)
}

// DonationService manages donation requests. Patients own theirs, caregivers read all.
type DonationService struct {
	store    database.Store
	enforcer *authz.Enforcer
}

// NewDonationService creates a DonationService.
func NewDonationService(store database.Store, enforcer *authz.Enforcer) *DonationService {
	return &DonationService{store: store, enforcer: enforcer}
}

// ParseRequestID parses a path id. Malformed ids are reported as ErrNotFound.
func ParseRequestID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}
	return uint(id), nil
}

func (s *DonationService) require(p auth.Principal, resource, action string) error {
	if !s.enforcer.Allowed(p.Role, resource, action) {
		return ErrRoleNotAllowed
	}
	return nil
}

// ListOwn returns the requests owned by the calling patient.
func (s *DonationService) ListOwn(ctx context.Context, p auth.Principal) ([]models.DonationRequest, error) {
	if err := s.require(p, authz.ResourceOwnRequests, authz.ActionRead); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListDonationRequestsByOwner(ctx, p.AccountID)
	if err != nil {
		return nil, storeErr(err)
	}
	return reqs, nil
}

// ListAll returns every request. Only caregivers may browse the full list.
func (s *DonationService) ListAll(ctx context.Context, p auth.Principal) ([]models.DonationRequest, error) {
	if err := s.require(p, authz.ResourceAllRequests, authz.ActionRead); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListDonationRequests(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return reqs, nil
}

// Create stores a new request owned by the calling patient.
func (s *DonationService) Create(ctx context.Context, p auth.Principal, in DonationInput) (*models.DonationRequest, error) {
	if err := s.require(p, authz.ResourceOwnRequests, authz.ActionWrite); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validate(in); err != nil {
		return nil, err
	}

	req := &models.DonationRequest{
		Item:         in.Item,
		Description:  in.Description,
		UrgencyLevel: in.UrgencyLevel,
		ContactInfo:  in.ContactInfo,
		OwnerID:      p.AccountID,
	}
	if err := s.store.CreateDonationRequest(ctx, req); err != nil {
		return nil, storeErr(err)
	}

	metrics.DonationRequestEvents.WithLabelValues("create").Inc()
	logging.Ctx(ctx).Info().Uint("request_id", req.ID).Uint("owner_id", p.AccountID).Msg("donation request created")
	return req, nil
}

// owned loads a request and checks that p owns it.
func owned(ctx context.Context, tx database.Store, p auth.Principal, id uint) (*models.DonationRequest, error) {
	req, err := tx.GetDonationRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RolePatient || req.OwnerID != p.AccountID {
		return nil, ErrPermissionDenied
	}
	return req, nil
}

// GetForEdit returns a request the caller owns.
func (s *DonationService) GetForEdit(ctx context.Context, p auth.Principal, id uint) (*models.DonationRequest, error) {
	if err := s.require(p, authz.ResourceOwnRequests, authz.ActionRead); err != nil {
		return nil, err
	}
	req, err := owned(ctx, s.store, p, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return req, nil
}

// Update replaces the fields of a request the caller owns.
func (s *DonationService) Update(ctx context.Context, p auth.Principal, id uint, in DonationInput) (*models.DonationRequest, error) {
	if err := s.require(p, authz.ResourceOwnRequests, authz.ActionWrite); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validate(in); err != nil {
		return nil, err
	}

	var updated *models.DonationRequest
	err := s.store.WithinTx(ctx, func(tx database.Store) error {
		req, err := owned(ctx, tx, p, id)
		if err != nil {
			return err
		}
		req.Item = in.Item
		req.Description = in.Description
		req.UrgencyLevel = in.UrgencyLevel
		req.ContactInfo = in.ContactInfo
		if err := tx.UpdateDonationRequest(ctx, req); err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}

	metrics.DonationRequestEvents.WithLabelValues("update").Inc()
	return updated, nil
}

// Delete removes a request the caller owns.
func (s *DonationService) Delete(ctx context.Context, p auth.Principal, id uint) error {
	if err := s.require(p, authz.ResourceOwnRequests, authz.ActionWrite); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(tx database.Store) error {
		if _, err := owned(ctx, tx, p, id); err != nil {
			return err
		}
		return tx.DeleteDonationRequest(ctx, id)
	})
	if err != nil {
		return storeErr(err)
	}

	metrics.DonationRequestEvents.WithLabelValues("delete").Inc()
	logging.Ctx(ctx).Info().Uint("request_id", id).Uint("owner_id", p.AccountID).Msg("donation request deleted")
	return nil
}
