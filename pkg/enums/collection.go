package enums

import "fmt"

// Collection names a set-like string collection on the farm profile. The
// vocabulary is closed: toggles addressed at anything else are a programmer
// error and treated as a logged no-op.
type Collection string

const (
	CollectionWaterSources Collection = "water_sources"
	CollectionCropTypes    Collection = "crop_types"
	CollectionGoals        Collection = "goals"
	CollectionCurrentCrops Collection = "current_crops"
	CollectionEquipment    Collection = "equipment"
)

var validCollections = []Collection{
	CollectionWaterSources,
	CollectionCropTypes,
	CollectionGoals,
	CollectionCurrentCrops,
	CollectionEquipment,
}

// Collections returns the closed vocabulary in declaration order.
func Collections() []Collection {
	out := make([]Collection, len(validCollections))
	copy(out, validCollections)
	return out
}

// String implements fmt.Stringer.
func (c Collection) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Collection.
func (c Collection) IsValid() bool {
	for _, candidate := range validCollections {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCollection converts raw input into a Collection.
func ParseCollection(value string) (Collection, error) {
	for _, candidate := range validCollections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid collection %q", value)
}
