package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gbmoto/magazzino-backend/pkg/db"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines catalog operations over components and BOM edges.
type Service interface {
	DefineComponent(ctx context.Context, input DefineComponentInput) (*models.Component, error)
	UpdateComponent(ctx context.Context, id uuid.UUID, input UpdateComponentInput) (*models.Component, error)
	DeleteComponent(ctx context.Context, id uuid.UUID) error
	GetComponent(ctx context.Context, id uuid.UUID) (*models.Component, error)
	FindBySKU(ctx context.Context, sku string) (*models.Component, error)
	FindByCode(ctx context.Context, code string) (*models.Component, error)
	ListComponents(ctx context.Context) ([]models.Component, error)
	SetPart(ctx context.Context, assemblyID, partID uuid.UUID, qty int) error
	RemovePart(ctx context.Context, assemblyID, partID uuid.UUID) error
	ListParts(ctx context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error)
	ListUsages(ctx context.Context, partID uuid.UUID) ([]models.ComponentPart, error)
}

// DefineComponentInput captures the fields required to register a component.
type DefineComponentInput struct {
	SKU  string
	Name string
	Code *string
	Kind enums.ComponentKind
	Unit string
}

// UpdateComponentInput carries mutable component fields.
type UpdateComponentInput struct {
	Name *string
	Code *string
	Unit *string
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a catalog service with the provided repository and tx runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) DefineComponent(ctx context.Context, input DefineComponentInput) (*models.Component, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "name is required")
	}
	if !input.Kind.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid component kind %q", input.Kind))
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "pcs"
	}

	component := &models.Component{
		SKU:  sku,
		Name: strings.TrimSpace(input.Name),
		Code: normalizeCode(input.Code),
		Kind: input.Kind,
		Unit: unit,
	}

	// The component and its stock snapshot row are born together.
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, component); err != nil {
			return err
		}
		return repo.CreateStock(ctx, component.ID)
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_components_sku") {
			return nil, apperrors.New(apperrors.CodeConflict, fmt.Sprintf("sku %q already exists", sku))
		}
		if dbpkg.IsUniqueViolation(err, "ux_components_code") {
			return nil, apperrors.New(apperrors.CodeConflict, "scan code already assigned to another component")
		}
		return nil, err
	}
	return component, nil
}

func (s *service) UpdateComponent(ctx context.Context, id uuid.UUID, input UpdateComponentInput) (*models.Component, error) {
	component, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "name cannot be empty")
		}
		component.Name = name
	}
	if input.Code != nil {
		component.Code = normalizeCode(input.Code)
	}
	if input.Unit != nil {
		unit := strings.TrimSpace(*input.Unit)
		if unit == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "unit cannot be empty")
		}
		component.Unit = unit
	}

	if err := s.repo.Update(ctx, component); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_components_code") {
			return nil, apperrors.New(apperrors.CodeConflict, "scan code already assigned to another component")
		}
		return nil, err
	}
	return component, nil
}

// DeleteComponent refuses to remove a component that is still referenced
// by any BOM edge or by ledger history.
func (s *service) DeleteComponent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.mustGet(ctx, id); err != nil {
		return err
	}

	edges, err := s.repo.CountEdges(ctx, id)
	if err != nil {
		return err
	}
	if edges > 0 {
		return apperrors.New(apperrors.CodeConflict, "component is referenced by BOM edges")
	}

	movements, err := s.repo.CountMovements(ctx, id)
	if err != nil {
		return err
	}
	if movements > 0 {
		return apperrors.New(apperrors.CodeConflict, "component has ledger history and cannot be deleted")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}

func (s *service) GetComponent(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	return s.mustGet(ctx, id)
}

func (s *service) FindBySKU(ctx context.Context, sku string) (*models.Component, error) {
	component, err := s.repo.GetBySKU(ctx, strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	if component == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("component with sku %q not found", sku))
	}
	return component, nil
}

func (s *service) FindByCode(ctx context.Context, code string) (*models.Component, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "scan code is required")
	}
	component, err := s.repo.GetByCode(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if component == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("no component registered for code %q", trimmed))
	}
	return component, nil
}

func (s *service) ListComponents(ctx context.Context) ([]models.Component, error) {
	return s.repo.List(ctx)
}

// SetPart creates or updates the BOM edge assembly -> part. The edge is
// rejected when it would close a cycle in the component graph.
func (s *service) SetPart(ctx context.Context, assemblyID, partID uuid.UUID, qty int) error {
	if qty <= 0 {
		return apperrors.New(apperrors.CodeValidation, "part quantity must be positive")
	}
	if assemblyID == partID {
		return apperrors.New(apperrors.CodeCycle, "an assembly cannot contain itself")
	}

	assembly, err := s.mustGet(ctx, assemblyID)
	if err != nil {
		return err
	}
	if assembly.Kind != enums.ComponentKindAssembly {
		return apperrors.New(apperrors.CodeValidation, fmt.Sprintf("component %s is not an assembly", assembly.SKU))
	}
	if _, err := s.mustGet(ctx, partID); err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The new edge closes a cycle exactly when the assembly is already
		// reachable from the part.
		reachable, err := s.isReachable(ctx, repo, partID, assemblyID)
		if err != nil {
			return err
		}
		if reachable {
			return apperrors.New(apperrors.CodeCycle, "adding this part would create a cycle in the BOM graph")
		}

		return repo.UpsertPart(ctx, &models.ComponentPart{
			AssemblyID: assemblyID,
			PartID:     partID,
			Qty:        qty,
		})
	})
}

func (s *service) RemovePart(ctx context.Context, assemblyID, partID uuid.UUID) error {
	if _, err := s.mustGet(ctx, assemblyID); err != nil {
		return err
	}
	return s.repo.RemovePart(ctx, assemblyID, partID)
}

func (s *service) ListParts(ctx context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error) {
	if _, err := s.mustGet(ctx, assemblyID); err != nil {
		return nil, err
	}
	return s.repo.ListParts(ctx, assemblyID)
}

func (s *service) ListUsages(ctx context.Context, partID uuid.UUID) ([]models.ComponentPart, error) {
	if _, err := s.mustGet(ctx, partID); err != nil {
		return nil, err
	}
	return s.repo.ListUsages(ctx, partID)
}

func (s *service) mustGet(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "component id is required")
	}
	component, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if component == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("component %s not found", id))
	}
	return component, nil
}

// isReachable walks the BOM graph breadth-first from start looking for target.
func (s *service) isReachable(ctx context.Context, repo Repository, start, target uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]bool{start: true}
	queue := []uuid.UUID{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		edges, err := repo.ListParts(ctx, current)
		if err != nil {
			return false, err
		}
		for _, edge := range edges {
			if edge.PartID == target {
				return true, nil
			}
			if !visited[edge.PartID] {
				visited[edge.PartID] = true
				queue = append(queue, edge.PartID)
			}
		}
	}
	return false, nil
}

func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
