package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/history"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// CreateRoomRequest is the body of POST /api/v1/rooms
type CreateRoomRequest struct {
	ProjectTitle string `json:"project_title"`
	Name         string `json:"name"`
}

// ListRooms retrieves all rooms with their session counts
func (c *Client) ListRooms(ctx context.Context) ([]models.RoomListItem, error) {
	var rooms []models.RoomListItem
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom registers a new room
func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	var room models.Room
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/rooms", req, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoom retrieves a specific room by ID
func (c *Client) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var room models.Room
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%s", id), nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListSessions retrieves the measurement history of a room, oldest first
func (c *Client) ListSessions(ctx context.Context, roomID uuid.UUID) ([]models.MeasurementSession, error) {
	var sessions []models.MeasurementSession
	path := fmt.Sprintf("/api/v1/rooms/%s/sessions", roomID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetPivot retrieves the history comparison of a room. joinByID matches
// points across sessions by id instead of by name.
func (c *Client) GetPivot(ctx context.Context, roomID uuid.UUID, joinByID bool) (*history.Pivot, error) {
	path := fmt.Sprintf("/api/v1/rooms/%s/pivot", roomID)
	if joinByID {
		path += "?" + url.Values{"join": {"id"}}.Encode()
	}

	var pivot history.Pivot
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &pivot); err != nil {
		return nil, err
	}
	return &pivot, nil
}
