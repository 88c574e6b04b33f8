// Package history pivots the saved measurement sessions of a room into a
// point-indexed, date-ordered table and marks each reading as improved or
// worsened relative to the next older session.
package history

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/measurement"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// DefaultNames is the minimum set of point names every pivot shows
var DefaultNames = func() []string {
	names := make([]string, measurement.DefaultPointCount)
	for i := range names {
		names[i] = measurement.PointName(i + 1)
	}
	return names
}()

// Reading is one wall or floor value of a cell
type Reading struct {
	Value string `json:"value"`
	Trend Trend  `json:"trend"`
}

// Cell is the reading of one point in one session
type Cell struct {
	Present bool      `json:"present"`
	PointID uuid.UUID `json:"point_id,omitempty"`
	Wall    Reading   `json:"wall"`
	Floor   Reading   `json:"floor"`
	Notes   string    `json:"notes,omitempty"`
}

// Column describes one session of the pivot. Columns are ordered newest
// first.
type Column struct {
	SessionID uuid.UUID              `json:"session_id"`
	Date      time.Time              `json:"date"`
	Metadata  models.SessionMetadata `json:"metadata"`
	Current   bool                   `json:"current"`
}

// Row holds the cells of one point across all columns
type Row struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// Conflict reports a point key that occurs more than once within a single
// session. Only the first occurrence is shown in the pivot.
type Conflict struct {
	SessionID uuid.UUID `json:"session_id"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
}

// Pivot is the comparison table of a room's history
type Pivot struct {
	Columns   []Column   `json:"columns"`
	Rows      []Row      `json:"rows"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// Summary counts trend markers
type Summary struct {
	Improved  int `json:"improved"`
	Worsened  int `json:"worsened"`
	Unchanged int `json:"unchanged"`
}

// Summary counts the trend markers of one column
func (p Pivot) Summary(column int) Summary {
	var s Summary
	if column < 0 || column >= len(p.Columns) {
		return s
	}
	for _, row := range p.Rows {
		cell := row.Cells[column]
		for _, r := range []Reading{cell.Wall, cell.Floor} {
			switch r.Trend {
			case TrendImproved:
				s.Improved++
			case TrendWorsened:
				s.Worsened++
			case TrendUnchanged:
				s.Unchanged++
			}
		}
	}
	return s
}

// Comparator builds pivots.
//
// By default cells are joined by point name, and the first point with a
// given name in a session wins. With JoinByID, cells are joined by the
// stable point id instead, so renamed points stay on one row; rows are then
// labelled with the newest name.
type Comparator struct {
	MinimumNames []string
	JoinByID     bool
}

// NewComparator returns a name-joining comparator with the default names
func NewComparator() Comparator {
	return Comparator{MinimumNames: DefaultNames}
}

type column struct {
	session models.MeasurementSession
	at      time.Time
	current bool
}

// Compare pivots history plus the optional in-progress session
func (c Comparator) Compare(history []models.MeasurementSession, current *models.MeasurementSession) Pivot {
	cols := make([]column, 0, len(history)+1)
	for _, s := range history {
		cols = append(cols, column{session: s, at: s.SessionTime()})
	}
	if current != nil {
		cols = append(cols, column{session: *current, at: current.SessionTime(), current: true})
	}

	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if !a.at.Equal(b.at) {
			return a.at.After(b.at)
		}
		if a.current != b.current {
			return a.current
		}
		return a.session.CreatedAt.After(b.session.CreatedAt)
	})

	pivot := Pivot{
		Columns: make([]Column, len(cols)),
	}
	for i, col := range cols {
		pivot.Columns[i] = Column{
			SessionID: col.session.ID,
			Date:      col.at,
			Metadata:  col.session.Metadata,
			Current:   col.current,
		}
	}

	rows := c.rows(cols)
	for i := range rows {
		rows[i].Cells = make([]Cell, len(cols))
		for j, col := range cols {
			if p, ok := c.lookup(col.session, rows[i].Key); ok {
				rows[i].Cells[j] = Cell{
					Present: true,
					PointID: p.ID,
					Wall:    Reading{Value: p.WallValue},
					Floor:   Reading{Value: p.FloorValue},
					Notes:   p.Notes,
				}
			}
		}
		markTrends(rows[i].Cells)
	}
	pivot.Rows = rows

	for _, col := range cols {
		pivot.Conflicts = append(pivot.Conflicts, c.conflicts(col.session)...)
	}

	return pivot
}

// markTrends compares each present cell with the cell of the next older
// session. The oldest column is never marked.
func markTrends(cells []Cell) {
	for j := 0; j+1 < len(cells); j++ {
		cell, older := &cells[j], cells[j+1]
		if !cell.Present || !older.Present {
			continue
		}
		cell.Wall.Trend = CompareValues(cell.Wall.Value, older.Wall.Value)
		cell.Floor.Trend = CompareValues(cell.Floor.Value, older.Floor.Value)
	}
}

func (c Comparator) key(p models.MeasurementPoint) string {
	if c.JoinByID && p.ID != uuid.Nil {
		return p.ID.String()
	}
	return nameKey(p.PointName)
}

func nameKey(name string) string {
	return "name:" + name
}

// rows collects the distinct point keys of all columns, newest first, and
// sorts them by display name
func (c Comparator) rows(cols []column) []Row {
	var rows []Row
	index := map[string]int{}
	labels := map[string]bool{}

	for _, col := range cols {
		for _, p := range col.session.Points {
			labels[p.PointName] = true
			k := c.key(p)
			if _, ok := index[k]; ok {
				continue
			}
			index[k] = len(rows)
			rows = append(rows, Row{Key: k, Name: p.PointName})
		}
	}

	for _, name := range c.MinimumNames {
		if labels[name] {
			continue
		}
		k := nameKey(name)
		if _, ok := index[k]; ok {
			continue
		}
		index[k] = len(rows)
		rows = append(rows, Row{Key: k, Name: name})
		labels[name] = true
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return NaturalLess(rows[i].Name, rows[j].Name)
		}
		return rows[i].Key < rows[j].Key
	})

	return rows
}

// lookup returns the first point of s matching the row key
func (c Comparator) lookup(s models.MeasurementSession, key string) (models.MeasurementPoint, bool) {
	for _, p := range s.Points {
		if c.key(p) == key {
			return p, true
		}
	}
	return models.MeasurementPoint{}, false
}

func (c Comparator) conflicts(s models.MeasurementSession) []Conflict {
	counts := map[string]int{}
	var order []string
	for _, p := range s.Points {
		k := c.key(p)
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	var out []Conflict
	for _, k := range order {
		if counts[k] > 1 {
			out = append(out, Conflict{SessionID: s.ID, Key: k, Count: counts[k]})
		}
	}
	return out
}
