package main

import (
	"bytes"
	"image/png"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/editor"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/export"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/sketch"
)

type editorStatus struct {
	ID       uuid.UUID           `json:"id"`
	RoomID   uuid.UUID           `json:"room_id"`
	State    editor.State        `json:"state"`
	ReadOnly bool                `json:"read_only"`
	Format   export.Format       `json:"format"`
	Canvas   editor.CanvasStatus `json:"canvas"`
}

type strokeRequest struct {
	Tool   string         `json:"tool"`
	Color  string         `json:"color"`
	Width  float64        `json:"width"`
	Device string         `json:"device"`
	Points []sketch.Point `json:"points"`
}

type fieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type saveResponse struct {
	Session     models.MeasurementSession `json:"session"`
	DownloadURL string                    `json:"download_url,omitempty"`
	ExpiresAt   *time.Time                `json:"expires_at,omitempty"`
}

// tool builds the drawing tool of a stroke request
func (req strokeRequest) tool() (sketch.Tool, error) {
	switch strings.ToLower(req.Tool) {
	case "", "pen":
		c := sketch.PenBlack.Color
		if req.Color != "" {
			parsed, err := sketch.ParseColor(req.Color)
			if err != nil {
				return sketch.Tool{}, badRequest("%v", err)
			}
			c = parsed
		}
		return sketch.Pen(c, req.Width), nil
	case "eraser":
		return sketch.Eraser(), nil
	}
	return sketch.Tool{}, badRequest("unknown tool %q (valid: pen, eraser)", req.Tool)
}

// lookupEditor resolves the {id} path variable to an open editor
func (rm *RouteManager) lookupEditor(w http.ResponseWriter, r *http.Request) (*editorEntry, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		rm.writeError(w, r, err)
		return nil, false
	}
	entry, ok := rm.editors.Get(id)
	if !ok {
		rm.writeError(w, r, errEditorNotFound)
		return nil, false
	}
	return entry, true
}

func (rm *RouteManager) writeEditorStatus(w http.ResponseWriter, r *http.Request, status int, entry *editorEntry) {
	canvas, err := entry.editor.CanvasStatus()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, status, editorStatus{
		ID:       entry.editor.ID(),
		RoomID:   entry.room.ID,
		State:    entry.editor.State(),
		ReadOnly: entry.editor.ReadOnly(),
		Format:   entry.editor.Format(),
		Canvas:   canvas,
	})
}

// openEditorHandler starts an editor seeded from the newest session
func (rm *RouteManager) openEditorHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "id")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	var req openEditorRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			rm.writeError(w, r, err)
			return
		}
	}
	if req.Format != "" {
		if _, err := export.ParseFormat(req.Format); err != nil {
			rm.writeError(w, r, badRequest("%v", err))
			return
		}
	}

	entry, err := rm.editors.Open(r.Context(), roomID, req)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	rm.requestLogger(r).Info("✓ Editor opened for room",
		zap.String("room_id", roomID.String()),
		zap.String("editor_id", entry.editor.ID().String()))
	rm.writeEditorStatus(w, r, http.StatusCreated, entry)
}

// editorStatusHandler returns the state of an open editor
func (rm *RouteManager) editorStatusHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	rm.writeEditorStatus(w, r, http.StatusOK, entry)
}

// closeEditorHandler discards an editor without saving
func (rm *RouteManager) closeEditorHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	if err := entry.editor.Discard(); err != nil {
		rm.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// strokeHandler draws one complete stroke
func (rm *RouteManager) strokeHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	var req strokeRequest
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	tool, err := req.tool()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	changed, err := entry.editor.Stroke(req.Points, tool, sketch.ParseDevice(req.Device))
	rm.writeChanged(w, r, changed, err)
}

// undoHandler steps back one snapshot
func (rm *RouteManager) undoHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	changed, err := entry.editor.Undo()
	rm.writeChanged(w, r, changed, err)
}

// redoHandler steps forward one snapshot
func (rm *RouteManager) redoHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	changed, err := entry.editor.Redo()
	rm.writeChanged(w, r, changed, err)
}

func (rm *RouteManager) writeChanged(w http.ResponseWriter, r *http.Request, changed bool, err error) {
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// writeEmpty answers a command without a result
func (rm *RouteManager) writeEmpty(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clearHandler wipes the sketch
func (rm *RouteManager) clearHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	rm.writeEmpty(w, r, entry.editor.Clear())
}

// lockHandler blocks drawing
func (rm *RouteManager) lockHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	rm.writeEmpty(w, r, entry.editor.Lock())
}

// unlockHandler restores the mode active before lock
func (rm *RouteManager) unlockHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	rm.writeEmpty(w, r, entry.editor.Unlock())
}

// setModeHandler selects the input mode
func (rm *RouteManager) setModeHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	mode, err := sketch.ParseMode(req.Mode)
	if err != nil {
		rm.writeError(w, r, badRequest("%v", err))
		return
	}
	rm.writeEmpty(w, r, entry.editor.SetMode(mode))
}

// setDisplaySizeHandler sets the size the canvas is shown at
func (rm *RouteManager) setDisplaySizeHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		rm.writeError(w, r, badRequest("display size must be positive"))
		return
	}
	rm.writeEmpty(w, r, entry.editor.SetDisplaySize(req.Width, req.Height))
}

// listPointsHandler returns the measurement table
func (rm *RouteManager) listPointsHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	points, err := entry.editor.Points()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// addPointHandler appends a point with the next default name
func (rm *RouteManager) addPointHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	point, err := entry.editor.AddPoint()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, point)
}

// updatePointHandler sets one field of a point
func (rm *RouteManager) updatePointHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	pointID, err := pathID(r, "pointID")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	var req fieldUpdate
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	field, err := models.ParsePointField(req.Field)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	rm.writeEmpty(w, r, entry.editor.UpdatePoint(pointID, field, req.Value))
}

// removePointHandler deletes a point
func (rm *RouteManager) removePointHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	pointID, err := pathID(r, "pointID")
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	rm.writeEmpty(w, r, entry.editor.RemovePoint(pointID))
}

// getMetadataHandler returns the session-level fields
func (rm *RouteManager) getMetadataHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	md, err := entry.editor.Metadata()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// setMetadataHandler sets one session-level field
func (rm *RouteManager) setMetadataHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	var req fieldUpdate
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	field, err := models.ParseMetadataField(req.Field)
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	rm.writeEmpty(w, r, entry.editor.SetMetadata(field, req.Value))
}

// setFormatHandler selects PNG or PDF export
func (rm *RouteManager) setFormatHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	var req struct {
		Format string `json:"format"`
	}
	if err := decodeJSON(r, &req); err != nil {
		rm.writeError(w, r, err)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		rm.writeError(w, r, badRequest("%v", err))
		return
	}
	rm.writeEmpty(w, r, entry.editor.SetFormat(format))
}

// editorPivotHandler compares the stored history with the session being
// edited
func (rm *RouteManager) editorPivotHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	pivot, err := entry.editor.Pivot()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pivot)
}

// sketchHandler returns the current sketch surface as PNG
func (rm *RouteManager) sketchHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}
	img, err := entry.editor.Snapshot()
	if err != nil {
		rm.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		rm.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// saveHandler exports the editor view, stores artifact and session and
// closes the editor
func (rm *RouteManager) saveHandler(w http.ResponseWriter, r *http.Request) {
	entry, ok := rm.lookupEditor(w, r)
	if !ok {
		return
	}

	if _, err := entry.editor.Save(r.Context()); err != nil {
		rm.writeError(w, r, err)
		return
	}

	session, ok := entry.Saved()
	if !ok {
		rm.writeError(w, r, editor.ErrSaveFailed)
		return
	}

	resp := saveResponse{Session: session}
	if rm.signer != nil {
		url, expires, err := rm.shareURL(session.Artifact.Digest)
		if err != nil {
			rm.writeError(w, r, err)
			return
		}
		resp.DownloadURL = url
		resp.ExpiresAt = &expires
	}

	writeJSON(w, http.StatusCreated, resp)
}
