package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidGeometry marks boundary payloads that fail structural validation
// or cannot be parsed back out of their transport encoding.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Coordinate is a single lon/lat pair in GeoJSON axis order.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Polygon is a farm boundary: a single closed ring of coordinates. The ring
// carries the closing coordinate explicitly, GeoJSON style, so Ring[0] equals
// Ring[len-1] for any valid polygon.
type Polygon struct {
	Ring []Coordinate
}

// Validate checks the structural invariant: a closed ring with at
// least three distinct points.
func (p *Polygon) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil polygon", ErrInvalidGeometry)
	}
	if len(p.Ring) < 4 {
		return fmt.Errorf("%w: ring has %d coordinates, need at least 4 (3 points plus closure)", ErrInvalidGeometry, len(p.Ring))
	}
	first, last := p.Ring[0], p.Ring[len(p.Ring)-1]
	if first != last {
		return fmt.Errorf("%w: ring is not closed", ErrInvalidGeometry)
	}
	distinct := map[Coordinate]struct{}{}
	for _, c := range p.Ring[:len(p.Ring)-1] {
		distinct[c] = struct{}{}
	}
	if len(distinct) < 3 {
		return fmt.Errorf("%w: ring has %d distinct points, need at least 3", ErrInvalidGeometry, len(distinct))
	}
	return nil
}

// Equal reports whether two polygons have identical rings.
func (p *Polygon) Equal(other *Polygon) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.Ring) != len(other.Ring) {
		return false
	}
	for i := range p.Ring {
		if p.Ring[i] != other.Ring[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the polygon.
func (p *Polygon) Clone() *Polygon {
	if p == nil {
		return nil
	}
	ring := make([]Coordinate, len(p.Ring))
	copy(ring, p.Ring)
	return &Polygon{Ring: ring}
}

// The persistence layer stores boundaries as a single string field holding a
// GeoJSON Feature. This is the one documented shape; anything else fails to
// parse.
type featureDoc struct {
	Type     string      `json:"type"`
	Geometry geometryDoc `json:"geometry"`
}

type geometryDoc struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// EncodeFeature flattens a validated polygon to its transport string.
func EncodeFeature(p *Polygon) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	ring := make([][]float64, 0, len(p.Ring))
	for _, c := range p.Ring {
		ring = append(ring, []float64{c.Lon, c.Lat})
	}
	doc := featureDoc{
		Type: "Feature",
		Geometry: geometryDoc{
			Type:        "Polygon",
			Coordinates: [][][]float64{ring},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return string(raw), nil
}

// ParseFeature parses the transport string back into a structured polygon.
func ParseFeature(raw string) (*Polygon, error) {
	var doc featureDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if doc.Type != "Feature" {
		return nil, fmt.Errorf("%w: unexpected feature type %q", ErrInvalidGeometry, doc.Type)
	}
	if doc.Geometry.Type != "Polygon" {
		return nil, fmt.Errorf("%w: unexpected geometry type %q", ErrInvalidGeometry, doc.Geometry.Type)
	}
	if len(doc.Geometry.Coordinates) != 1 {
		return nil, fmt.Errorf("%w: expected a single ring, got %d", ErrInvalidGeometry, len(doc.Geometry.Coordinates))
	}
	rawRing := doc.Geometry.Coordinates[0]
	ring := make([]Coordinate, 0, len(rawRing))
	for _, pair := range rawRing {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: coordinate has %d components", ErrInvalidGeometry, len(pair))
		}
		ring = append(ring, Coordinate{Lon: pair[0], Lat: pair[1]})
	}
	p := &Polygon{Ring: ring}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
