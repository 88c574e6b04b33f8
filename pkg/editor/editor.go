// Package editor ties the sketch canvas, the measurement table and the
// history comparator together into one editing session with an explicit
// lifecycle: Closed, Opening, Editing, Saving and back to Closed.
//
// All methods are safe for concurrent use. Only one save runs at a time.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/history"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/measurement"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/sketch"
)

var (
	// ErrClosed is returned by operations on an editor that is not open
	ErrClosed = errors.New("editor is not open")
	// ErrNotClosed is returned by Open on an editor that is already open
	ErrNotClosed = errors.New("editor is already open")
	// ErrSaving is returned by edits while a save is in progress
	ErrSaving = errors.New("save in progress")
	// ErrReadOnly is returned by edits in read-only mode
	ErrReadOnly = errors.New("editor is read-only")
	// ErrSaveFailed wraps every failure of the save pipeline
	ErrSaveFailed = errors.New("could not save sketch")
)

// State is the lifecycle state of an editor
type State int

const (
	StateClosed State = iota
	StateOpening
	StateEditing
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	}
	return "closed"
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options configures an editor
type Options struct {
	// ReadOnly forces locked mode and rejects table and metadata edits
	ReadOnly bool

	Title        string
	ProjectTitle string
	RoomName     string

	// Format selects the export artifact, PDF when empty
	Format export.Format
	Canvas sketch.CanvasOptions

	// DefaultPoints is the size of a fresh table, measurement.DefaultPointCount when zero
	DefaultPoints int
	RenderScale   int
	Registry      *export.Registry
	// JoinByID makes Pivot join points by id instead of name
	JoinByID bool

	Now    func() time.Time
	Logger *zap.Logger
}

// Prior is the saved state an editor opens from
type Prior struct {
	Points    []models.MeasurementPoint
	Metadata  models.SessionMetadata
	SketchPNG []byte
	// Resume restores points and metadata as saved instead of starting a
	// new measurement pass
	Resume bool
}

// Bundle is handed to the save callback
type Bundle struct {
	Artifact  export.Artifact
	Points    []models.MeasurementPoint
	Metadata  models.SessionMetadata
	SketchPNG []byte
}

// SaveFunc persists a bundle. The editor stays open when it returns an error.
type SaveFunc func(ctx context.Context, b Bundle) error

// CloseFunc is called whenever the editor closes, with or without a save
type CloseFunc func()

// Editor is one editing session of a room's sketch and measurement table
type Editor struct {
	id      uuid.UUID
	opts    Options
	onSave  SaveFunc
	onClose CloseFunc
	logger  *zap.Logger
	now     func() time.Time

	saves singleflight.Group

	mu         sync.Mutex
	state      State
	canvas     *sketch.Canvas
	table      *measurement.Table
	metadata   models.SessionMetadata
	history    []models.MeasurementSession
	format     export.Format
	unlockMode sketch.Mode
	// closePending is set by Close during a save
	closePending bool
}

// New creates a closed editor
func New(opts Options, onSave SaveFunc, onClose CloseFunc) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Format == "" {
		opts.Format = export.FormatPDF
	}
	if opts.DefaultPoints <= 0 {
		opts.DefaultPoints = measurement.DefaultPointCount
	}
	if opts.Registry == nil {
		opts.Registry = export.DefaultRegistry()
	}

	id := uuid.New()
	return &Editor{
		id:      id,
		opts:    opts,
		onSave:  onSave,
		onClose: onClose,
		logger:  logger.With(zap.String("editor_id", id.String())),
		now:     now,
		format:  opts.Format,
	}
}

// ID returns the editor id
func (e *Editor) ID() uuid.UUID { return e.id }

// ReadOnly reports whether the editor was created read-only
func (e *Editor) ReadOnly() bool { return e.opts.ReadOnly }

// State returns the lifecycle state
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Open loads the prior state and history and starts editing.
//
// Without a prior state the table holds the default points, the date is
// today and the canvas is blank. A prior state with Resume restores points,
// metadata and sketch as saved. Any other prior state starts a new pass:
// same points with empty values, today's date, the previous measurement
// device and the previous sketch.
func (e *Editor) Open(prior *Prior, sessions []models.MeasurementSession) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateClosed {
		return ErrNotClosed
	}
	e.state = StateOpening

	today := models.Today(e.now())
	canvas := sketch.NewCanvas(e.opts.Canvas)

	switch {
	case prior == nil:
		e.table = measurement.DefaultTable(e.opts.DefaultPoints)
		e.metadata = models.SessionMetadata{Date: today}
	case prior.Resume:
		e.table = measurement.NewTable(prior.Points)
		e.metadata = prior.Metadata
	default:
		e.table = measurement.NextPass(prior.Points)
		e.metadata = models.SessionMetadata{Date: today, DeviceName: prior.Metadata.DeviceName}
	}

	if prior != nil && len(prior.SketchPNG) > 0 {
		img, err := png.Decode(bytes.NewReader(prior.SketchPNG))
		if err != nil {
			e.logger.Warn("❌ Could not restore sketch, starting blank", zap.Error(err))
		} else {
			canvas.Restore(img)
		}
	}

	e.unlockMode = sketch.ModeDraw
	if e.opts.ReadOnly {
		canvas.SetMode(sketch.ModeLocked)
	}

	e.canvas = canvas
	e.history = append([]models.MeasurementSession(nil), sessions...)
	e.state = StateEditing

	e.logger.Info("✓ Editor opened",
		zap.Bool("read_only", e.opts.ReadOnly),
		zap.Int("points", e.table.Len()),
		zap.Int("history", len(e.history)))
	return nil
}

// editable returns an error unless the editor is in the Editing state
func (e *Editor) editable() error {
	switch e.state {
	case StateEditing:
		return nil
	case StateSaving:
		return ErrSaving
	}
	return ErrClosed
}

// writable additionally rejects read-only editors
func (e *Editor) writable() error {
	if err := e.editable(); err != nil {
		return err
	}
	if e.opts.ReadOnly {
		return ErrReadOnly
	}
	return nil
}

// Close discards any uncommitted stroke and all in-memory state, then
// calls the close callback. During a save the close is deferred until the
// save finishes. Closing a closed editor does nothing.
func (e *Editor) Close() {
	e.mu.Lock()
	if e.state == StateSaving {
		e.closePending = true
		e.mu.Unlock()
		e.logger.Info("Close deferred until save finishes")
		return
	}
	e.closeLocked()
}

// Discard closes the editor like Close but refuses with ErrSaving while a
// save is in progress
func (e *Editor) Discard() error {
	e.mu.Lock()
	if e.state == StateSaving {
		e.mu.Unlock()
		return ErrSaving
	}
	e.closeLocked()
	return nil
}

// closeLocked is called with e.mu held and releases it
func (e *Editor) closeLocked() {
	if e.state == StateClosed {
		e.mu.Unlock()
		return
	}
	if e.canvas != nil {
		e.canvas.CancelStroke()
	}
	e.release()
	e.mu.Unlock()

	e.logger.Info("Editor closed")
	if e.onClose != nil {
		e.onClose()
	}
}

func (e *Editor) release() {
	e.state = StateClosed
	e.canvas = nil
	e.table = nil
	e.history = nil
	e.metadata = models.SessionMetadata{}
	e.closePending = false
}

// Save captures the editor view, encodes it in the selected format and
// hands the bundle to the save callback. On success the editor closes; on
// failure it stays open with all state unchanged and the returned error
// wraps ErrSaveFailed, unless Close was called during the save. Concurrent calls share the result of the save in
// flight.
func (e *Editor) Save(ctx context.Context) (Bundle, error) {
	v, err, shared := e.saves.Do("save", func() (interface{}, error) {
		return e.save(ctx)
	})
	if shared {
		e.logger.Debug("Joined save in progress")
	}
	if err != nil {
		return Bundle{}, err
	}
	return v.(Bundle), nil
}

func (e *Editor) save(ctx context.Context) (Bundle, error) {
	e.mu.Lock()
	if err := e.writable(); err != nil {
		e.mu.Unlock()
		return Bundle{}, err
	}

	now := e.now()
	view := export.View{
		Title:        e.opts.Title,
		ProjectTitle: e.opts.ProjectTitle,
		RoomName:     e.opts.RoomName,
		Metadata:     e.metadata,
		Points:       e.table.Points(),
		Sketch:       e.canvas.Snapshot(),
		Created:      now,
	}
	format := e.format
	e.state = StateSaving
	e.mu.Unlock()

	bundle, err := capture(view, format, e.opts, now)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil && e.onSave != nil {
		err = e.onSave(ctx, bundle)
	}

	e.mu.Lock()
	if err != nil {
		e.logger.Error("❌ Save failed", zap.Error(err))
		if e.closePending {
			e.closeLocked()
		} else {
			e.state = StateEditing
			e.mu.Unlock()
		}
		return Bundle{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	e.release()
	e.mu.Unlock()

	e.logger.Info("✓ Sketch saved",
		zap.String("artifact", bundle.Artifact.Name),
		zap.Int("bytes", len(bundle.Artifact.Data)))
	if e.onClose != nil {
		e.onClose()
	}
	return bundle, nil
}

// capture builds the bundle from a copy of the editor state
func capture(view export.View, format export.Format, opts Options, now time.Time) (Bundle, error) {
	artifact, err := export.Capture(view, format, export.CaptureOptions{
		Render:   export.RenderOptions{Scale: opts.RenderScale},
		Registry: opts.Registry,
		Now:      func() time.Time { return now },
	})
	if err != nil {
		return Bundle{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, view.Sketch); err != nil {
		return Bundle{}, fmt.Errorf("failed to encode sketch snapshot: %w", err)
	}

	return Bundle{
		Artifact:  artifact,
		Points:    models.ClonePoints(view.Points),
		Metadata:  view.Metadata,
		SketchPNG: buf.Bytes(),
	}, nil
}

// Format returns the selected export format
func (e *Editor) Format() export.Format {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.format
}

// SetFormat selects PNG or PDF export
func (e *Editor) SetFormat(f export.Format) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return err
	}
	if _, ok := e.opts.Registry.Get(f); !ok {
		return fmt.Errorf("unsupported export format: %s", f)
	}
	e.format = f
	return nil
}

// Pivot compares the history the editor was opened with and the session
// being edited
func (e *Editor) Pivot() (history.Pivot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return history.Pivot{}, err
	}

	current := models.MeasurementSession{
		ID:        e.id,
		Metadata:  e.metadata,
		Points:    e.table.Points(),
		CreatedAt: e.now(),
	}
	c := history.NewComparator()
	c.JoinByID = e.opts.JoinByID
	return c.Compare(e.history, &current), nil
}

// Snapshot returns a copy of the sketch surface
func (e *Editor) Snapshot() (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.editable(); err != nil {
		return nil, err
	}
	return e.canvas.Snapshot(), nil
}
