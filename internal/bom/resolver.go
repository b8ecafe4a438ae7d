package bom

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

// ComponentSource exposes the catalog reads the resolver needs.
type ComponentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
	ListParts(ctx context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error)
}

// RequirementLine is one raw component requirement in a resolved BOM.
type RequirementLine struct {
	Component models.Component
	Qty       int
}

// Resolver flattens assemblies into their raw component requirements.
type Resolver struct {
	source ComponentSource
}

// NewResolver builds a resolver over the provided component source.
func NewResolver(source ComponentSource) (*Resolver, error) {
	if source == nil {
		return nil, fmt.Errorf("component source required")
	}
	return &Resolver{source: source}, nil
}

// Resolve expands the component into raw requirements, multiplying nested
// edge quantities along each path. Requirements keep the order in which raw
// components are first encountered during the walk. Quantities scale
// linearly: Resolve(c, n) equals Resolve(c, 1) with every qty multiplied
// by n.
func (r *Resolver) Resolve(ctx context.Context, componentID uuid.UUID, qty int) ([]RequirementLine, error) {
	if componentID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "component id is required")
	}
	if qty <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
	}

	acc := newAccumulator()
	path := map[uuid.UUID]bool{}
	if err := r.walk(ctx, componentID, qty, path, acc); err != nil {
		return nil, err
	}
	return acc.lines(), nil
}

// ResolveMany resolves a set of component requirements into one merged
// raw-requirement list, as needed when picking a whole order.
func (r *Resolver) ResolveMany(ctx context.Context, requirements map[uuid.UUID]int, order []uuid.UUID) ([]RequirementLine, error) {
	acc := newAccumulator()
	for _, componentID := range order {
		qty, ok := requirements[componentID]
		if !ok {
			continue
		}
		if qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
		path := map[uuid.UUID]bool{}
		if err := r.walk(ctx, componentID, qty, path, acc); err != nil {
			return nil, err
		}
	}
	return acc.lines(), nil
}

func (r *Resolver) walk(ctx context.Context, componentID uuid.UUID, qty int, path map[uuid.UUID]bool, acc *accumulator) error {
	if path[componentID] {
		// Edges are validated at write time, so a cycle here means the
		// stored graph no longer matches its own invariants.
		return apperrors.New(apperrors.CodeCycle, "cycle detected in stored BOM graph")
	}

	component, err := r.source.GetByID(ctx, componentID)
	if err != nil {
		return err
	}
	if component == nil {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("component %s not found", componentID))
	}

	if component.Kind == enums.ComponentKindRaw {
		acc.add(*component, qty)
		return nil
	}

	edges, err := r.source.ListParts(ctx, componentID)
	if err != nil {
		return err
	}

	// An assembly with an empty BOM behaves like a leaf and resolves to itself.
	if len(edges) == 0 {
		acc.add(*component, qty)
		return nil
	}

	path[componentID] = true
	defer delete(path, componentID)

	for _, edge := range edges {
		if err := r.walk(ctx, edge.PartID, qty*edge.Qty, path, acc); err != nil {
			return err
		}
	}
	return nil
}

// accumulator totals requirements while preserving first-encounter order.
type accumulator struct {
	index map[uuid.UUID]int
	order []RequirementLine
}

func newAccumulator() *accumulator {
	return &accumulator{index: map[uuid.UUID]int{}}
}

func (a *accumulator) add(component models.Component, qty int) {
	if pos, ok := a.index[component.ID]; ok {
		a.order[pos].Qty += qty
		return
	}
	a.index[component.ID] = len(a.order)
	a.order = append(a.order, RequirementLine{Component: component, Qty: qty})
}

func (a *accumulator) lines() []RequirementLine {
	return a.order
}
