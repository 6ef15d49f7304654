package geometry

import (
	"errors"
	"testing"
)

func closedTriangle() *Polygon {
	return &Polygon{Ring: []Coordinate{
		{Lon: -97.1, Lat: 33.2},
		{Lon: -97.0, Lat: 33.2},
		{Lon: -97.0, Lat: 33.3},
		{Lon: -97.1, Lat: 33.2},
	}}
}

func TestValidateAcceptsClosedTriangle(t *testing.T) {
	if err := closedTriangle().Validate(); err != nil {
		t.Fatalf("expected triangle to validate, got %v", err)
	}
}

func TestValidateRejectsTwoPointRing(t *testing.T) {
	p := &Polygon{Ring: []Coordinate{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 0},
	}}
	err := p.Validate()
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestValidateRejectsOpenRing(t *testing.T) {
	p := &Polygon{Ring: []Coordinate{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 1},
	}}
	err := p.Validate()
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry for open ring, got %v", err)
	}
}

func TestValidateRejectsDegenerateDistinctPoints(t *testing.T) {
	// Four coordinates but only two distinct points.
	p := &Polygon{Ring: []Coordinate{
		{Lon: 0, Lat: 0},
		{Lon: 1, Lat: 1},
		{Lon: 0, Lat: 0},
		{Lon: 0, Lat: 0},
	}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidGeometry) {
		t.Fatalf("expected ErrInvalidGeometry, got %v", err)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	p := closedTriangle()
	raw, err := EncodeFeature(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	parsed, err := ParseFeature(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.Equal(parsed) {
		t.Fatalf("round trip mismatch: %+v vs %+v", p.Ring, parsed.Ring)
	}
}

func TestEncodeProducesDocumentedShape(t *testing.T) {
	raw, err := EncodeFeature(closedTriangle())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[-97.1,33.2],[-97,33.2],[-97,33.3],[-97.1,33.2]]]}}`
	if raw != want {
		t.Fatalf("unexpected transport encoding:\n got %s\nwant %s", raw, want)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		"not json",
		`{"type":"FeatureCollection"}`,
		`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]}}`,
		`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[]}}`,
		`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[1,2,3],[4,5,6],[1,2,3]]]}}`,
	} {
		if _, err := ParseFeature(raw); !errors.Is(err, ErrInvalidGeometry) {
			t.Fatalf("expected ErrInvalidGeometry for %q, got %v", raw, err)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := closedTriangle()
	clone := p.Clone()
	clone.Ring[0].Lon = 99
	if p.Ring[0].Lon == 99 {
		t.Fatal("clone shares backing array with original")
	}
}
