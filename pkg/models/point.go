package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownField is returned when a point field name is not recognized
var ErrUnknownField = errors.New("unknown point field")

// PointField names one editable column of a measurement point
type PointField string

const (
	FieldPointName  PointField = "point_name"
	FieldWallValue  PointField = "wall_value"
	FieldFloorValue PointField = "floor_value"
	FieldNotes      PointField = "notes"
)

// MeasurementPoint represents a single named moisture measurement location.
// Wall and floor values are kept as entered; numeric parsing happens only
// when sessions are compared.
type MeasurementPoint struct {
	ID         uuid.UUID `json:"id"`
	PointName  string    `json:"point_name"`
	WallValue  string    `json:"wall_value"`
	FloorValue string    `json:"floor_value"`
	Notes      string    `json:"notes"`
}

// ParsePointField converts a string to a PointField
func ParsePointField(s string) (PointField, error) {
	switch f := PointField(s); f {
	case FieldPointName, FieldWallValue, FieldFloorValue, FieldNotes:
		return f, nil
	}
	return "", fmt.Errorf("%w: %s (valid: point_name, wall_value, floor_value, notes)", ErrUnknownField, s)
}

// Set replaces exactly one field of the point
func (p *MeasurementPoint) Set(field PointField, value string) error {
	switch field {
	case FieldPointName:
		p.PointName = value
	case FieldWallValue:
		p.WallValue = value
	case FieldFloorValue:
		p.FloorValue = value
	case FieldNotes:
		p.Notes = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// Get returns the value of one field
func (p MeasurementPoint) Get(field PointField) (string, error) {
	switch field {
	case FieldPointName:
		return p.PointName, nil
	case FieldWallValue:
		return p.WallValue, nil
	case FieldFloorValue:
		return p.FloorValue, nil
	case FieldNotes:
		return p.Notes, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, field)
}

// ClonePoints returns a copy of the given points
func ClonePoints(points []MeasurementPoint) []MeasurementPoint {
	if points == nil {
		return nil
	}
	out := make([]MeasurementPoint, len(points))
	copy(out, points)
	return out
}
