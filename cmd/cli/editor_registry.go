package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/editor"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/sketch"
)

// openEditorRequest is the body of POST /api/v1/rooms/{id}/editors
type openEditorRequest struct {
	ReadOnly bool   `json:"read_only"`
	Resume   bool   `json:"resume"`
	Format   string `json:"format"`
}

// editorEntry is an open editor and the room it belongs to
type editorEntry struct {
	editor *editor.Editor
	room   models.Room

	mu       sync.Mutex
	saved    *models.MeasurementSession
	lastUsed time.Time
}

func (e *editorEntry) touch(now time.Time) {
	e.mu.Lock()
	e.lastUsed = now
	e.mu.Unlock()
}

func (e *editorEntry) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

// Saved returns the session stored by the last successful save
func (e *editorEntry) Saved() (models.MeasurementSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saved == nil {
		return models.MeasurementSession{}, false
	}
	return *e.saved, true
}

// EditorRegistry keeps the open editors of the server. Saved bundles are
// written to the artifact store and appended to the room history.
type EditorRegistry struct {
	store     database.Store
	artifacts *artifacts.Store
	encoders  *export.Registry
	cfg       config.EditorConfig
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	editors map[uuid.UUID]*editorEntry
}

// NewEditorRegistry creates an empty registry
func NewEditorRegistry(store database.Store, artifactStore *artifacts.Store, cfg config.EditorConfig, logger *zap.Logger) *EditorRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorRegistry{
		store:     store,
		artifacts: artifactStore,
		encoders:  export.DefaultRegistry(),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		editors:   make(map[uuid.UUID]*editorEntry),
	}
}

// Open starts an editor for a room. The newest stored session seeds the
// table, metadata and sketch.
func (r *EditorRegistry) Open(ctx context.Context, roomID uuid.UUID, req openEditorRequest) (*editorEntry, error) {
	room, err := r.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	sessions, err := r.store.ListSessions(ctx, roomID)
	if err != nil {
		return nil, err
	}

	format := export.Format(r.cfg.ExportFormat)
	if req.Format != "" {
		if format, err = export.ParseFormat(req.Format); err != nil {
			return nil, err
		}
	}

	var prior *editor.Prior
	if n := len(sessions); n > 0 {
		last := sessions[n-1]
		prior = &editor.Prior{
			Points:    last.Points,
			Metadata:  last.Metadata,
			SketchPNG: last.SketchPNG,
			Resume:    req.Resume,
		}
	}

	entry := &editorEntry{room: room, lastUsed: r.now()}
	entry.editor = editor.New(editor.Options{
		ReadOnly:     req.ReadOnly,
		ProjectTitle: room.ProjectTitle,
		RoomName:     room.Name,
		Format:       format,
		Canvas: sketch.CanvasOptions{
			Width:    r.cfg.CanvasWidth,
			Height:   r.cfg.CanvasHeight,
			GridSize: r.cfg.GridSize,
		},
		DefaultPoints: r.cfg.DefaultPoints,
		RenderScale:   r.cfg.RenderScale,
		Registry:      r.encoders,
		JoinByID:      r.cfg.JoinByID,
		Logger:        r.logger.With(zap.String("room_id", room.ID.String())),
	}, r.saveFunc(entry), func() { r.remove(entry.editor.ID()) })

	r.mu.Lock()
	r.editors[entry.editor.ID()] = entry
	r.mu.Unlock()

	if err := entry.editor.Open(prior, sessions); err != nil {
		r.remove(entry.editor.ID())
		return nil, err
	}

	return entry, nil
}

// saveFunc stores the artifact and appends the session to the room history
func (r *EditorRegistry) saveFunc(entry *editorEntry) editor.SaveFunc {
	return func(ctx context.Context, b editor.Bundle) error {
		ref, err := r.artifacts.Put(b.Artifact.Name, b.Artifact.ContentType, b.Artifact.Data)
		if err != nil {
			return err
		}

		session, err := r.store.AppendSession(ctx, models.MeasurementSession{
			RoomID:    entry.room.ID,
			Metadata:  b.Metadata,
			Points:    b.Points,
			SketchPNG: b.SketchPNG,
			Artifact:  ref,
		})
		if err != nil {
			return fmt.Errorf("failed to store session: %w", err)
		}

		entry.mu.Lock()
		entry.saved = &session
		entry.mu.Unlock()

		r.logger.Info("✓ Session stored",
			zap.String("room_id", entry.room.ID.String()),
			zap.String("session_id", session.ID.String()),
			zap.String("artifact", ref.Digest))
		return nil
	}
}

// Get returns an open editor and marks it as used
func (r *EditorRegistry) Get(id uuid.UUID) (*editorEntry, bool) {
	r.mu.RLock()
	e, ok := r.editors[id]
	r.mu.RUnlock()
	if ok {
		e.touch(r.now())
	}
	return e, ok
}

// Len returns the number of open editors
func (r *EditorRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editors)
}

// CloseAll discards every open editor without saving. Editors with a save
// in flight close when the save finishes.
func (r *EditorRegistry) CloseAll() {
	r.mu.RLock()
	open := make([]*editorEntry, 0, len(r.editors))
	for _, e := range r.editors {
		open = append(open, e)
	}
	r.mu.RUnlock()

	for _, e := range open {
		e.editor.Close()
	}
	if len(open) > 0 {
		r.logger.Info("Closed open editors", zap.Int("count", len(open)))
	}
}

// CloseIdle discards editors that have not been used for maxIdle and
// returns how many were closed. Editors with a save in flight are kept.
func (r *EditorRegistry) CloseIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.RLock()
	var idle []*editorEntry
	for _, e := range r.editors {
		if e.idleSince().Before(cutoff) && e.editor.State() == editor.StateEditing {
			idle = append(idle, e)
		}
	}
	r.mu.RUnlock()

	closed := 0
	for _, e := range idle {
		if err := e.editor.Discard(); err != nil {
			continue
		}
		r.logger.Info("Closed idle editor",
			zap.String("editor_id", e.editor.ID().String()),
			zap.String("room_id", e.room.ID.String()))
		closed++
	}
	return closed
}

func (r *EditorRegistry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.editors, id)
}
