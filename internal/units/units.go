// Package units provides shared constants and validation for speed units
package units

// Unit constants
const (
	KMH = "kmh"
	MPH = "mph"
	MPS = "mps"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{KMH, MPH, MPS}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "kmh, mph, mps"
}

// ConvertSpeed converts a speed from km/h to the target units.
// Telemetry channels carry speeds in km/h.
func ConvertSpeed(speedKmh float64, targetUnits string) float64 {
	switch targetUnits {
	case KMH:
		return speedKmh
	case MPH:
		return speedKmh * 0.62137119223733
	case MPS:
		return speedKmh / 3.6
	default:
		return speedKmh
	}
}
