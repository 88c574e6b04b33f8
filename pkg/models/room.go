package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Room represents a physical room of a damage case
type Room struct {
	ID           uuid.UUID `json:"id"`
	ProjectTitle string    `json:"project_title"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoomListItem is a room with a summary of its history
type RoomListItem struct {
	ID            uuid.UUID  `json:"id"`
	ProjectTitle  string     `json:"project_title"`
	Name          string     `json:"name"`
	TotalSessions int        `json:"total_sessions"`
	LastSession   *time.Time `json:"last_session"`
}

// Validate checks if the room can be stored
func (r *Room) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.ProjectTitle = strings.TrimSpace(r.ProjectTitle)

	if r.Name == "" {
		return fmt.Errorf("room name must not be empty")
	}
	if len(r.Name) > 255 {
		return fmt.Errorf("room name must be at most 255 characters")
	}
	if len(r.ProjectTitle) > 255 {
		return fmt.Errorf("project title must be at most 255 characters")
	}

	return nil
}
