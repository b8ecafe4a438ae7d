package enums

import "fmt"

// ComponentKind maps to the component_kind_enum enum in Postgres.
type ComponentKind string

const (
	ComponentKindRaw      ComponentKind = "RAW"
	ComponentKindAssembly ComponentKind = "ASSEMBLY"
)

var validComponentKinds = []ComponentKind{
	ComponentKindRaw,
	ComponentKindAssembly,
}

// IsValid reports whether the value matches the canonical component kind enum.
func (k ComponentKind) IsValid() bool {
	for _, candidate := range validComponentKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseComponentKind converts raw input into ComponentKind.
func ParseComponentKind(value string) (ComponentKind, error) {
	for _, candidate := range validComponentKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid component kind %q", value)
}
