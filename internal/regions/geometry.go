package regions

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidStructure   = errors.New("Invalid polygon structure")
	ErrNotClosed          = errors.New("The polygon must be closed (first and last points must be equal)")
	ErrInvalidCoordinates = errors.New("Invalid coordinates")
	ErrInvalidDistance    = errors.New("Distance must be greater than 0")
	ErrShortName          = errors.New("Region name must be at least 3 characters")
)

// Polygon is a GeoJSON polygon restricted to a single outer ring. Each vertex
// is a [longitude, latitude] pair; holes and multi-rings are not supported.
type Polygon struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

// Validate enforces the structural invariants of a region boundary: a single
// ring of at least 4 vertices whose first and last points are exactly equal.
// Self-intersection and convexity are deliberately not checked.
func (p *Polygon) Validate() error {
	if p == nil || len(p.Coordinates) == 0 {
		return ErrInvalidStructure
	}
	if p.Type != "" && p.Type != "Polygon" {
		return ErrInvalidStructure
	}

	ring := p.Coordinates[0]
	if len(ring) < 4 {
		return ErrInvalidStructure
	}

	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return ErrNotClosed
	}

	return nil
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lng float64
	Lat float64
}

func (p Point) Validate() error {
	if p.Lng < -180 || p.Lng > 180 || p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidCoordinates
	}
	return nil
}

// validateName requires at least 3 characters after NFC normalization and
// whitespace trimming, so combining-character names are measured fairly.
func validateName(name string) error {
	trimmed := norm.NFC.String(strings.TrimSpace(name))
	if utf8.RuneCountInString(trimmed) < 3 {
		return ErrShortName
	}
	return nil
}
