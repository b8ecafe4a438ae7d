package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

// Service defines supplier directory operations.
type Service interface {
	Create(ctx context.Context, input SupplierInput) (*models.Supplier, error)
	Update(ctx context.Context, id uuid.UUID, input SupplierInput) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context) ([]models.Supplier, error)
}

// SupplierInput carries the supplier contact fields.
type SupplierInput struct {
	Name  string
	Email string
	Phone string
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input SupplierInput) (*models.Supplier, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	supplier := &models.Supplier{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.TrimSpace(input.Email),
		Phone: strings.TrimSpace(input.Phone),
	}
	if err := s.repo.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input SupplierInput) (*models.Supplier, error) {
	supplier, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}
	supplier.Name = strings.TrimSpace(input.Name)
	supplier.Email = strings.TrimSpace(input.Email)
	supplier.Phone = strings.TrimSpace(input.Phone)
	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

// Delete refuses to remove a supplier that still has deliveries on record.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.mustGet(ctx, id); err != nil {
		return err
	}
	deliveries, err := s.repo.CountDeliveries(ctx, id)
	if err != nil {
		return err
	}
	if deliveries > 0 {
		return apperrors.New(apperrors.CodeConflict, "supplier has deliveries on record and cannot be deleted")
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return s.mustGet(ctx, id)
}

func (s *service) List(ctx context.Context) ([]models.Supplier, error) {
	return s.repo.List(ctx)
}

func (s *service) mustGet(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "supplier id is required")
	}
	supplier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("supplier %s not found", id))
	}
	return supplier, nil
}

func validateInput(input SupplierInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.New(apperrors.CodeValidation, "supplier name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return apperrors.New(apperrors.CodeValidation, "supplier email is required")
	}
	return nil
}
