package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/history"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/sketch"
)

// OpenEditorRequest is the body of POST /api/v1/rooms/{id}/editors
type OpenEditorRequest struct {
	ReadOnly bool   `json:"read_only"`
	Resume   bool   `json:"resume"`
	Format   string `json:"format,omitempty"`
}

// CanvasStatus mirrors the canvas part of an editor status
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

// EditorStatus describes an open editor
type EditorStatus struct {
	ID       uuid.UUID    `json:"id"`
	RoomID   uuid.UUID    `json:"room_id"`
	State    string       `json:"state"`
	ReadOnly bool         `json:"read_only"`
	Format   string       `json:"format"`
	Canvas   CanvasStatus `json:"canvas"`
}

// StrokeRequest is one complete stroke in surface coordinates
type StrokeRequest struct {
	Tool   string         `json:"tool"`
	Color  string         `json:"color,omitempty"`
	Width  float64        `json:"width,omitempty"`
	Device string         `json:"device,omitempty"`
	Points []sketch.Point `json:"points"`
}

// FieldUpdate sets one field of a point or of the session metadata
type FieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// SaveResult is returned by a successful save
type SaveResult struct {
	Session     models.MeasurementSession `json:"session"`
	DownloadURL string                    `json:"download_url"`
	ExpiresAt   time.Time                 `json:"expires_at"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

func editorPath(id uuid.UUID, suffix string) string {
	return fmt.Sprintf("/api/v1/editors/%s%s", id, suffix)
}

// OpenEditor starts an editing session for a room
func (c *Client) OpenEditor(ctx context.Context, roomID uuid.UUID, req OpenEditorRequest) (*EditorStatus, error) {
	var status EditorStatus
	path := fmt.Sprintf("/api/v1/rooms/%s/editors", roomID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// EditorStatus retrieves the state of an open editor
func (c *Client) EditorStatus(ctx context.Context, id uuid.UUID) (*EditorStatus, error) {
	var status EditorStatus
	if err := c.doJSON(ctx, http.MethodGet, editorPath(id, ""), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CloseEditor discards an editor without saving
func (c *Client) CloseEditor(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, editorPath(id, ""), nil, nil)
}

// Stroke draws one stroke and reports whether the surface changed
func (c *Client) Stroke(ctx context.Context, id uuid.UUID, req StrokeRequest) (bool, error) {
	var resp changedResponse
	if err := c.doJSON(ctx, http.MethodPost, editorPath(id, "/strokes"), req, &resp); err != nil {
		return false, err
	}
	return resp.Changed, nil
}

// Undo steps back one snapshot
func (c *Client) Undo(ctx context.Context, id uuid.UUID) (bool, error) {
	var resp changedResponse
	if err := c.doJSON(ctx, http.MethodPost, editorPath(id, "/undo"), nil, &resp); err != nil {
		return false, err
	}
	return resp.Changed, nil
}

// Redo steps forward one snapshot
func (c *Client) Redo(ctx context.Context, id uuid.UUID) (bool, error) {
	var resp changedResponse
	if err := c.doJSON(ctx, http.MethodPost, editorPath(id, "/redo"), nil, &resp); err != nil {
		return false, err
	}
	return resp.Changed, nil
}

// Clear wipes the sketch
func (c *Client) Clear(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodPost, editorPath(id, "/clear"), nil, nil)
}

// Lock blocks drawing until Unlock
func (c *Client) Lock(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodPost, editorPath(id, "/lock"), nil, nil)
}

// Unlock restores the mode that was active before Lock
func (c *Client) Unlock(ctx context.Context, id uuid.UUID) error {
	return c.doJSON(ctx, http.MethodPost, editorPath(id, "/unlock"), nil, nil)
}

// SetMode selects the input mode
func (c *Client) SetMode(ctx context.Context, id uuid.UUID, mode sketch.Mode) error {
	return c.doJSON(ctx, http.MethodPut, editorPath(id, "/mode"), map[string]sketch.Mode{"mode": mode}, nil)
}

// Points retrieves the measurement table
func (c *Client) Points(ctx context.Context, id uuid.UUID) ([]models.MeasurementPoint, error) {
	var points []models.MeasurementPoint
	if err := c.doJSON(ctx, http.MethodGet, editorPath(id, "/points"), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// AddPoint appends a point with the next default name
func (c *Client) AddPoint(ctx context.Context, id uuid.UUID) (*models.MeasurementPoint, error) {
	var point models.MeasurementPoint
	if err := c.doJSON(ctx, http.MethodPost, editorPath(id, "/points"), nil, &point); err != nil {
		return nil, err
	}
	return &point, nil
}

// UpdatePoint sets one field of a point
func (c *Client) UpdatePoint(ctx context.Context, id, pointID uuid.UUID, field models.PointField, value string) error {
	body := FieldUpdate{Field: string(field), Value: value}
	return c.doJSON(ctx, http.MethodPatch, editorPath(id, "/points/"+pointID.String()), body, nil)
}

// RemovePoint deletes a point from the table
func (c *Client) RemovePoint(ctx context.Context, id, pointID uuid.UUID) error {
	return c.doJSON(ctx, http.MethodDelete, editorPath(id, "/points/"+pointID.String()), nil, nil)
}

// Metadata retrieves the session-level fields
func (c *Client) Metadata(ctx context.Context, id uuid.UUID) (*models.SessionMetadata, error) {
	var md models.SessionMetadata
	if err := c.doJSON(ctx, http.MethodGet, editorPath(id, "/metadata"), nil, &md); err != nil {
		return nil, err
	}
	return &md, nil
}

// SetMetadata sets one session-level field
func (c *Client) SetMetadata(ctx context.Context, id uuid.UUID, field models.MetadataField, value string) error {
	body := FieldUpdate{Field: string(field), Value: value}
	return c.doJSON(ctx, http.MethodPatch, editorPath(id, "/metadata"), body, nil)
}

// SetFormat selects the export format
func (c *Client) SetFormat(ctx context.Context, id uuid.UUID, format string) error {
	return c.doJSON(ctx, http.MethodPut, editorPath(id, "/format"), map[string]string{"format": format}, nil)
}

// EditorPivot retrieves the history comparison including the session being
// edited
func (c *Client) EditorPivot(ctx context.Context, id uuid.UUID) (*history.Pivot, error) {
	var pivot history.Pivot
	if err := c.doJSON(ctx, http.MethodGet, editorPath(id, "/pivot"), nil, &pivot); err != nil {
		return nil, err
	}
	return &pivot, nil
}

// SketchPNG downloads the current sketch surface
func (c *Client) SketchPNG(ctx context.Context, id uuid.UUID) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, editorPath(id, "/sketch.png"), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sketch: %w", err)
	}
	return data, nil
}

// Save exports and stores the session. The editor is closed afterwards.
func (c *Client) Save(ctx context.Context, id uuid.UUID) (*SaveResult, error) {
	var result SaveResult
	if err := c.doJSON(ctx, http.MethodPost, editorPath(id, "/save"), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadArtifact fetches a stored artifact. The share token set with
// WithShareToken is used when token is empty.
func (c *Client) DownloadArtifact(ctx context.Context, digest, token string, w io.Writer) (int64, error) {
	if token == "" {
		token = c.shareToken
	}
	path := "/artifacts/" + digest + "?" + url.Values{"token": {token}}.Encode()

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read artifact: %w", err)
	}
	return n, nil
}
