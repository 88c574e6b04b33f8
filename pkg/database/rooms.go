package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// ErrRoomNotFound is returned for unknown room ids
var ErrRoomNotFound = errors.New("room not found")

// CreateRoom validates and stores a new room
func (dm *DatabaseManager) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	if err := room.Validate(); err != nil {
		return models.Room{}, err
	}

	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	query := `
        INSERT INTO rooms (id, project_title, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	if _, err := dm.ExecWithHealthCheck(ctx, query,
		room.ID, room.ProjectTitle, room.Name, room.CreatedAt, room.UpdatedAt,
	); err != nil {
		return models.Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

// GetRoom loads one room
func (dm *DatabaseManager) GetRoom(ctx context.Context, id uuid.UUID) (models.Room, error) {
	query := `
        SELECT id, project_title, name, created_at, updated_at
        FROM rooms
        WHERE id = $1
    `

	var room models.Room
	err := dm.QueryRowWithHealthCheck(ctx, query, id).Scan(
		&room.ID, &room.ProjectTitle, &room.Name, &room.CreatedAt, &room.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

// ListRooms returns all rooms with their session counts, ordered by project
// and room name
func (dm *DatabaseManager) ListRooms(ctx context.Context) ([]models.RoomListItem, error) {
	query := `
        SELECT r.id, r.project_title, r.name, COUNT(s.id), MAX(s.created_at)
        FROM rooms r
        LEFT JOIN measurement_sessions s ON s.room_id = r.id
        GROUP BY r.id, r.project_title, r.name
        ORDER BY r.project_title, r.name
    `

	rows, err := dm.QueryWithHealthCheck(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []models.RoomListItem{}
	for rows.Next() {
		var item models.RoomListItem
		var last sql.NullTime
		if err := rows.Scan(&item.ID, &item.ProjectTitle, &item.Name, &item.TotalSessions, &last); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		if last.Valid {
			t := last.Time
			item.LastSession = &t
		}
		rooms = append(rooms, item)
	}

	return rooms, rows.Err()
}
