package regions

import (
	"encoding/json"
	"errors"
	"testing"
)

// closedSquare is the Avenida Paulista test square used across the suite.
func closedSquare() *Polygon {
	return &Polygon{
		Type: "Polygon",
		Coordinates: [][][2]float64{{
			{-46.633308, -23.55052},
			{-46.633308, -23.54052},
			{-46.623308, -23.54052},
			{-46.623308, -23.55052},
			{-46.633308, -23.55052},
		}},
	}
}

func TestPolygonValidate(t *testing.T) {
	tests := []struct {
		name    string
		polygon *Polygon
		wantErr error
	}{
		{
			name:    "valid closed square",
			polygon: closedSquare(),
			wantErr: nil,
		},
		{
			name:    "nil polygon",
			polygon: nil,
			wantErr: ErrInvalidStructure,
		},
		{
			name:    "no coordinate ring",
			polygon: &Polygon{Type: "Polygon"},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "wrong geometry type",
			polygon: &Polygon{
				Type:        "LineString",
				Coordinates: closedSquare().Coordinates,
			},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "three point open ring",
			polygon: &Polygon{
				Type: "Polygon",
				Coordinates: [][][2]float64{{
					{-46.633308, -23.55052},
					{-46.633308, -23.54052},
					{-46.623308, -23.54052},
				}},
			},
			wantErr: ErrInvalidStructure,
		},
		{
			name: "four points but not closed",
			polygon: &Polygon{
				Type: "Polygon",
				Coordinates: [][][2]float64{{
					{-46.633308, -23.55052},
					{-46.633308, -23.54052},
					{-46.623308, -23.54052},
					{-46.623308, -23.55052},
				}},
			},
			wantErr: ErrNotClosed,
		},
		{
			name: "closed in one coordinate only",
			polygon: &Polygon{
				Type: "Polygon",
				Coordinates: [][][2]float64{{
					{-46.633308, -23.55052},
					{-46.633308, -23.54052},
					{-46.623308, -23.54052},
					{-46.633308, -23.54999},
				}},
			},
			wantErr: ErrNotClosed,
		},
		{
			name: "minimal closed triangle",
			polygon: &Polygon{
				Type: "Polygon",
				Coordinates: [][][2]float64{{
					{0, 0},
					{0, 1},
					{1, 0},
					{0, 0},
				}},
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.polygon.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestPolygonValidate_AcceptedRingsAreClosed re-checks the closure invariant
// on every accepted polygon: ring[0] == ring[len-1] and len(ring) >= 4.
func TestPolygonValidate_AcceptedRingsAreClosed(t *testing.T) {
	accepted := []*Polygon{
		closedSquare(),
		{Type: "Polygon", Coordinates: [][][2]float64{{{0, 0}, {0, 1}, {1, 0}, {0, 0}}}},
		{Coordinates: [][][2]float64{{{10, 10}, {10, 20}, {20, 20}, {20, 10}, {10, 10}}}},
	}

	for _, p := range accepted {
		if err := p.Validate(); err != nil {
			t.Fatalf("expected polygon to validate, got: %v", err)
		}
		ring := p.Coordinates[0]
		if len(ring) < 4 {
			t.Errorf("accepted ring has %d points, want >= 4", len(ring))
		}
		if ring[0] != ring[len(ring)-1] {
			t.Errorf("accepted ring is not closed: %v != %v", ring[0], ring[len(ring)-1])
		}
	}
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"origin", Point{0, 0}, false},
		{"sao paulo", Point{Lng: -46.63, Lat: -23.55}, false},
		{"boundary lng", Point{Lng: -180, Lat: 0}, false},
		{"boundary lat", Point{Lng: 0, Lat: 90}, false},
		{"lng too low", Point{Lng: -180.01, Lat: 0}, true},
		{"lng too high", Point{Lng: 180.01, Lat: 0}, true},
		{"lat too low", Point{Lng: 0, Lat: -90.01}, true},
		{"lat too high", Point{Lng: 0, Lat: 90.01}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("expected ErrInvalidCoordinates, got %v", err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"ok", "Test Region", false},
		{"exactly three", "abc", false},
		{"too short", "ab", true},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"short after trim", "  a  ", true},
		{"unicode combining marks counted once", "éé", true}, // éé is 2 chars after NFC
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// The wire shape of a polygon must match the GeoJSON the persistence layer
// stores and returns.
func TestPolygonJSONRoundTrip(t *testing.T) {
	raw := `{"type":"Polygon","coordinates":[[[-46.633308,-23.55052],[-46.633308,-23.54052],[-46.623308,-23.54052],[-46.623308,-23.55052],[-46.633308,-23.55052]]]}`

	var p Polygon
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("decoded polygon should validate, got: %v", err)
	}
	if p.Coordinates[0][0] != [2]float64{-46.633308, -23.55052} {
		t.Errorf("unexpected first vertex: %v", p.Coordinates[0][0])
	}
}
