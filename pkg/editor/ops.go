package editor

import (
	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/sketch"
)

// CanvasStatus describes the drawing surface for clients
type CanvasStatus struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Mode       sketch.Mode `json:"mode"`
	Locked     bool        `json:"locked"`
	Stroking   bool        `json:"stroking"`
	CanUndo    bool        `json:"can_undo"`
	CanRedo    bool        `json:"can_redo"`
	HistoryLen int         `json:"history_len"`
}

// withCanvas runs fn on the canvas while the editor is editing
func (e *Editor) withCanvas(fn func(c *sketch.Canvas) bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return false, err
	}
	return fn(e.canvas), nil
}

// BeginStroke starts a stroke at p in display coordinates. It reports
// false when the current mode does not accept input from device.
func (e *Editor) BeginStroke(p sketch.Point, tool sketch.Tool, device sketch.Device) (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool {
		return c.BeginStroke(p, tool, device)
	})
}

// ExtendStroke continues the active stroke to p
func (e *Editor) ExtendStroke(p sketch.Point) (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool {
		return c.ExtendStroke(p)
	})
}

// EndStroke commits the active stroke to the undo history
func (e *Editor) EndStroke() (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool {
		return c.EndStroke()
	})
}

// Stroke draws a complete path in one call. An empty path does nothing.
func (e *Editor) Stroke(path []sketch.Point, tool sketch.Tool, device sketch.Device) (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool {
		if len(path) == 0 || !c.BeginStroke(path[0], tool, device) {
			return false
		}
		for _, p := range path[1:] {
			c.ExtendStroke(p)
		}
		return c.EndStroke()
	})
}

// Undo steps back one snapshot; false when there is nothing to undo
func (e *Editor) Undo() (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool { return c.Undo() })
}

// Redo reapplies the next snapshot; false when there is nothing to redo
func (e *Editor) Redo() (bool, error) {
	return e.withCanvas(func(c *sketch.Canvas) bool { return c.Redo() })
}

// Clear resets the sketch to blank paper as an undoable step. It is
// refused in read-only mode.
func (e *Editor) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return err
	}
	e.canvas.Clear()
	return nil
}

// SetDisplaySize sets the on-screen size used to scale input coordinates
func (e *Editor) SetDisplaySize(width, height float64) error {
	_, err := e.withCanvas(func(c *sketch.Canvas) bool {
		c.SetDisplaySize(width, height)
		return true
	})
	return err
}

// Lock disables drawing. Table and metadata edits stay possible.
func (e *Editor) Lock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if m := e.canvas.Mode(); m != sketch.ModeLocked {
		e.unlockMode = m
	}
	e.canvas.SetMode(sketch.ModeLocked)
	return nil
}

// Unlock re-enables the input mode that was active before Lock
func (e *Editor) Unlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return err
	}
	if e.canvas.Mode() == sketch.ModeLocked {
		e.canvas.SetMode(e.unlockMode)
	}
	return nil
}

// SetMode switches the input mode. Read-only editors stay locked.
func (e *Editor) SetMode(m sketch.Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if e.opts.ReadOnly && m != sketch.ModeLocked {
		return ErrReadOnly
	}
	if m != sketch.ModeLocked {
		e.unlockMode = m
	}
	e.canvas.SetMode(m)
	return nil
}

// CanvasStatus reports the state of the drawing surface
func (e *Editor) CanvasStatus() (CanvasStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return CanvasStatus{}, err
	}
	c := e.canvas
	return CanvasStatus{
		Width:      c.Width(),
		Height:     c.Height(),
		Mode:       c.Mode(),
		Locked:     c.Mode() == sketch.ModeLocked,
		Stroking:   c.Stroking(),
		CanUndo:    c.CanUndo(),
		CanRedo:    c.CanRedo(),
		HistoryLen: c.HistoryLen(),
	}, nil
}

// Points returns a copy of the measurement table
func (e *Editor) Points() ([]models.MeasurementPoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return nil, err
	}
	return e.table.Points(), nil
}

// AddPoint appends an empty point to the table
func (e *Editor) AddPoint() (models.MeasurementPoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return models.MeasurementPoint{}, err
	}
	return e.table.AddPoint(), nil
}

// UpdatePoint sets one field of one point
func (e *Editor) UpdatePoint(id uuid.UUID, field models.PointField, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return err
	}
	return e.table.UpdatePoint(id, field, value)
}

// RemovePoint deletes a point from the table
func (e *Editor) RemovePoint(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return err
	}
	return e.table.RemovePoint(id)
}

// Metadata returns the session metadata
func (e *Editor) Metadata() (models.SessionMetadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return models.SessionMetadata{}, err
	}
	return e.metadata, nil
}

// SetMetadata sets one session metadata field
func (e *Editor) SetMetadata(field models.MetadataField, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.writable(); err != nil {
		return err
	}
	m := e.metadata
	if err := m.Set(field, value); err != nil {
		return err
	}
	e.metadata = m
	return nil
}
