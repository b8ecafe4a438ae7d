package enums

import "fmt"

// MovementSource maps to the movement_source_enum enum in Postgres. It names
// the event that caused a ledger entry.
type MovementSource string

const (
	MovementSourceOrder    MovementSource = "ORDER"
	MovementSourceDelivery MovementSource = "DELIVERY"
	MovementSourceManual   MovementSource = "MANUAL"
)

var validMovementSources = []MovementSource{
	MovementSourceOrder,
	MovementSourceDelivery,
	MovementSourceManual,
}

// IsValid reports whether the value matches the canonical movement source enum.
func (s MovementSource) IsValid() bool {
	for _, candidate := range validMovementSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMovementSource converts raw input into MovementSource.
func ParseMovementSource(value string) (MovementSource, error) {
	for _, candidate := range validMovementSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement source %q", value)
}
