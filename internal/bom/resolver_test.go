package bom

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
)

type stubComponentSource struct {
	components map[uuid.UUID]*models.Component
	edges      map[uuid.UUID][]models.ComponentPart
}

func newStubSource() *stubComponentSource {
	return &stubComponentSource{
		components: map[uuid.UUID]*models.Component{},
		edges:      map[uuid.UUID][]models.ComponentPart{},
	}
}

func (s *stubComponentSource) GetByID(_ context.Context, id uuid.UUID) (*models.Component, error) {
	return s.components[id], nil
}

func (s *stubComponentSource) ListParts(_ context.Context, assemblyID uuid.UUID) ([]models.ComponentPart, error) {
	return s.edges[assemblyID], nil
}

func (s *stubComponentSource) addComponent(sku string, kind enums.ComponentKind) *models.Component {
	component := &models.Component{ID: uuid.New(), SKU: sku, Name: sku, Kind: kind}
	s.components[component.ID] = component
	return component
}

func (s *stubComponentSource) addEdge(assembly, part *models.Component, qty int) {
	s.edges[assembly.ID] = append(s.edges[assembly.ID], models.ComponentPart{
		AssemblyID: assembly.ID,
		PartID:     part.ID,
		Qty:        qty,
	})
}

func newTestResolver(t *testing.T) (*Resolver, *stubComponentSource) {
	t.Helper()
	source := newStubSource()
	resolver, err := NewResolver(source)
	if err != nil {
		t.Fatalf("NewResolver returned error: %v", err)
	}
	return resolver, source
}

func requirementsBySKU(lines []RequirementLine) map[string]int {
	out := map[string]int{}
	for _, line := range lines {
		out[line.Component.SKU] = line.Qty
	}
	return out
}

func TestResolveRawComponentReturnsItself(t *testing.T) {
	resolver, source := newTestResolver(t)
	raw := source.addComponent("O-RING", enums.ComponentKindRaw)

	lines, err := resolver.Resolve(context.Background(), raw.ID, 5)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(lines) != 1 || lines[0].Component.ID != raw.ID || lines[0].Qty != 5 {
		t.Fatalf("unexpected result %+v", lines)
	}
}

func TestResolveSingleLevelAssembly(t *testing.T) {
	resolver, source := newTestResolver(t)
	a := source.addComponent("A", enums.ComponentKindRaw)
	b := source.addComponent("B", enums.ComponentKindRaw)
	x := source.addComponent("X", enums.ComponentKindAssembly)
	source.addEdge(x, a, 2)
	source.addEdge(x, b, 1)

	lines, err := resolver.Resolve(context.Background(), x.ID, 2)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got := requirementsBySKU(lines)
	if got["A"] != 4 || got["B"] != 2 {
		t.Fatalf("expected {A:4 B:2}, got %v", got)
	}
}

func TestResolveNestedAssembliesAccumulate(t *testing.T) {
	resolver, source := newTestResolver(t)
	screw := source.addComponent("SCREW", enums.ComponentKindRaw)
	plate := source.addComponent("PLATE", enums.ComponentKindRaw)
	sub := source.addComponent("SUB", enums.ComponentKindAssembly)
	top := source.addComponent("TOP", enums.ComponentKindAssembly)

	// top = 2*sub + 3*screw; sub = 4*screw + 1*plate
	source.addEdge(sub, screw, 4)
	source.addEdge(sub, plate, 1)
	source.addEdge(top, sub, 2)
	source.addEdge(top, screw, 3)

	lines, err := resolver.Resolve(context.Background(), top.ID, 1)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	got := requirementsBySKU(lines)
	if got["SCREW"] != 11 || got["PLATE"] != 2 {
		t.Fatalf("expected {SCREW:11 PLATE:2}, got %v", got)
	}
}

func TestResolveIsLinearInQty(t *testing.T) {
	resolver, source := newTestResolver(t)
	a := source.addComponent("A", enums.ComponentKindRaw)
	b := source.addComponent("B", enums.ComponentKindRaw)
	x := source.addComponent("X", enums.ComponentKindAssembly)
	source.addEdge(x, a, 2)
	source.addEdge(x, b, 1)

	base, err := resolver.Resolve(context.Background(), x.ID, 3)
	if err != nil {
		t.Fatalf("Resolve(3) returned error: %v", err)
	}
	doubled, err := resolver.Resolve(context.Background(), x.ID, 6)
	if err != nil {
		t.Fatalf("Resolve(6) returned error: %v", err)
	}

	baseBySKU := requirementsBySKU(base)
	for sku, qty := range requirementsBySKU(doubled) {
		if qty != 2*baseBySKU[sku] {
			t.Fatalf("expected %s doubled from %d, got %d", sku, baseBySKU[sku], qty)
		}
	}
}

func TestResolvePreservesFirstEncounterOrder(t *testing.T) {
	resolver, source := newTestResolver(t)
	a := source.addComponent("A", enums.ComponentKindRaw)
	b := source.addComponent("B", enums.ComponentKindRaw)
	c := source.addComponent("C", enums.ComponentKindRaw)
	sub := source.addComponent("SUB", enums.ComponentKindAssembly)
	top := source.addComponent("TOP", enums.ComponentKindAssembly)

	source.addEdge(top, a, 1)
	source.addEdge(top, sub, 1)
	source.addEdge(sub, b, 1)
	source.addEdge(sub, a, 1)
	source.addEdge(top, c, 1)

	lines, err := resolver.Resolve(context.Background(), top.ID, 1)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	wantOrder := []uuid.UUID{a.ID, b.ID, c.ID}
	if len(lines) != len(wantOrder) {
		t.Fatalf("expected %d lines, got %d", len(wantOrder), len(lines))
	}
	for i, want := range wantOrder {
		if lines[i].Component.ID != want {
			t.Fatalf("line %d: expected %s, got %s", i, want, lines[i].Component.ID)
		}
	}
	if lines[0].Qty != 2 {
		t.Fatalf("expected A accumulated to 2, got %d", lines[0].Qty)
	}
}

func TestResolveEmptyAssemblyBehavesAsLeaf(t *testing.T) {
	resolver, source := newTestResolver(t)
	hollow := source.addComponent("HOLLOW", enums.ComponentKindAssembly)

	lines, err := resolver.Resolve(context.Background(), hollow.ID, 3)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(lines) != 1 || lines[0].Component.ID != hollow.ID || lines[0].Qty != 3 {
		t.Fatalf("unexpected result %+v", lines)
	}
}

func TestResolveDetectsStoredCycle(t *testing.T) {
	resolver, source := newTestResolver(t)
	left := source.addComponent("LEFT", enums.ComponentKindAssembly)
	right := source.addComponent("RIGHT", enums.ComponentKindAssembly)
	source.addEdge(left, right, 1)
	source.addEdge(right, left, 1)

	_, err := resolver.Resolve(context.Background(), left.ID, 1)
	appErr := apperrors.As(err)
	if appErr == nil || appErr.Code() != apperrors.CodeCycle {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	resolver, source := newTestResolver(t)
	raw := source.addComponent("A", enums.ComponentKindRaw)

	if _, err := resolver.Resolve(context.Background(), uuid.Nil, 1); apperrors.As(err) == nil {
		t.Fatalf("expected validation error for nil id, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), raw.ID, 0); apperrors.As(err) == nil {
		t.Fatalf("expected validation error for zero qty, got %v", err)
	}
	if _, err := resolver.Resolve(context.Background(), uuid.New(), 1); apperrors.As(err) == nil {
		t.Fatalf("expected not found error for unknown id, got %v", err)
	}
}

func TestResolveManyMergesAcrossLines(t *testing.T) {
	resolver, source := newTestResolver(t)
	a := source.addComponent("A", enums.ComponentKindRaw)
	b := source.addComponent("B", enums.ComponentKindRaw)
	x := source.addComponent("X", enums.ComponentKindAssembly)
	y := source.addComponent("Y", enums.ComponentKindAssembly)
	source.addEdge(x, a, 2)
	source.addEdge(x, b, 1)
	source.addEdge(y, a, 1)

	lines, err := resolver.ResolveMany(
		context.Background(),
		map[uuid.UUID]int{x.ID: 1, y.ID: 3},
		[]uuid.UUID{x.ID, y.ID},
	)
	if err != nil {
		t.Fatalf("ResolveMany returned error: %v", err)
	}
	got := requirementsBySKU(lines)
	if got["A"] != 5 || got["B"] != 1 {
		t.Fatalf("expected {A:5 B:1}, got %v", got)
	}
}
