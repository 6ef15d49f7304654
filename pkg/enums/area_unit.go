package enums

import "fmt"

// AreaUnit is the unit of measure attached to a farm area magnitude.
type AreaUnit string

const (
	AreaUnitHectares     AreaUnit = "hectares"
	AreaUnitAcres        AreaUnit = "acres"
	AreaUnitSquareMeters AreaUnit = "square_meters"
)

var validAreaUnits = []AreaUnit{
	AreaUnitHectares,
	AreaUnitAcres,
	AreaUnitSquareMeters,
}

// String implements fmt.Stringer.
func (a AreaUnit) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AreaUnit.
func (a AreaUnit) IsValid() bool {
	for _, candidate := range validAreaUnits {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAreaUnit converts raw input into an AreaUnit.
func ParseAreaUnit(value string) (AreaUnit, error) {
	for _, candidate := range validAreaUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid area unit %q", value)
}
