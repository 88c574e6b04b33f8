// Package measurement maintains the ordered list of measurement points of
// the session being edited.
package measurement

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// DefaultPointCount is the number of points a fresh table starts with
const DefaultPointCount = 4

// ErrPointNotFound is returned when no point has the requested id
var ErrPointNotFound = errors.New("measurement point not found")

// PointName returns the default display name of the n-th point (1-based)
func PointName(n int) string {
	return fmt.Sprintf("Messpunkt %d", n)
}

// Table is an ordered list of measurement points. Point order is insertion
// order and names are not required to be unique.
type Table struct {
	points []models.MeasurementPoint
	newID  func() uuid.UUID
}

// NewTable creates a table holding a copy of points
func NewTable(points []models.MeasurementPoint) *Table {
	t := &Table{
		points: models.ClonePoints(points),
		newID:  uuid.New,
	}
	if t.points == nil {
		t.points = []models.MeasurementPoint{}
	}
	return t
}

// DefaultTable creates a table with n empty points named Messpunkt 1..n
func DefaultTable(n int) *Table {
	t := NewTable(nil)
	for i := 0; i < n; i++ {
		t.AddPoint()
	}
	return t
}

// NextPass creates a table for a new measurement pass of a room: ids, names
// and notes are carried over from prev, wall and floor values start empty.
func NextPass(prev []models.MeasurementPoint) *Table {
	t := NewTable(prev)
	for i := range t.points {
		if t.points[i].ID == uuid.Nil {
			t.points[i].ID = t.newID()
		}
		t.points[i].WallValue = ""
		t.points[i].FloorValue = ""
	}
	return t
}

// AddPoint appends a new empty point named after the current count
func (t *Table) AddPoint() models.MeasurementPoint {
	p := models.MeasurementPoint{
		ID:        t.newID(),
		PointName: PointName(len(t.points) + 1),
	}
	t.points = append(t.points, p)
	return p
}

// UpdatePoint replaces one field of the point with the given id. Values are
// stored as entered.
func (t *Table) UpdatePoint(id uuid.UUID, field models.PointField, value string) error {
	i := t.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}

	// Work on a copy so an unknown field leaves the table untouched.
	p := t.points[i]
	if err := p.Set(field, value); err != nil {
		return err
	}
	t.points[i] = p

	return nil
}

// RemovePoint deletes the point with the given id. Remaining points keep
// their names and order.
func (t *Table) RemovePoint(id uuid.UUID) error {
	i := t.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPointNotFound, id)
	}

	points := make([]models.MeasurementPoint, 0, len(t.points)-1)
	points = append(points, t.points[:i]...)
	points = append(points, t.points[i+1:]...)
	t.points = points

	return nil
}

// Point returns the point with the given id
func (t *Table) Point(id uuid.UUID) (models.MeasurementPoint, bool) {
	if i := t.index(id); i >= 0 {
		return t.points[i], true
	}
	return models.MeasurementPoint{}, false
}

// Points returns a copy of all points in order
func (t *Table) Points() []models.MeasurementPoint {
	return models.ClonePoints(t.points)
}

// Len returns the number of points
func (t *Table) Len() int {
	return len(t.points)
}

func (t *Table) index(id uuid.UUID) int {
	for i, p := range t.points {
		if p.ID == id {
			return i
		}
	}
	return -1
}
