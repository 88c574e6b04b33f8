package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

const sessionColumns = `
    id, room_id, session_date, temperature, humidity, device_name, points,
    sketch_png, artifact_name, artifact_content_type, artifact_digest,
    artifact_size, created_at
`

// AppendSession adds a session to the history of its room. Stored sessions
// are never updated.
func (dm *DatabaseManager) AppendSession(ctx context.Context, s models.MeasurementSession) (models.MeasurementSession, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.Points == nil {
		s.Points = []models.MeasurementPoint{}
	}

	points, err := json.Marshal(s.Points)
	if err != nil {
		return models.MeasurementSession{}, fmt.Errorf("failed to marshal points: %w", err)
	}

	var digest sql.NullString
	if s.Artifact.Digest != "" {
		digest = sql.NullString{String: s.Artifact.Digest, Valid: true}
	}

	tx, err := dm.beginTx(ctx)
	if err != nil {
		return models.MeasurementSession{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE rooms SET updated_at = $2 WHERE id = $1`, s.RoomID, s.CreatedAt)
	if err != nil {
		return models.MeasurementSession{}, fmt.Errorf("failed to touch room: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.MeasurementSession{}, ErrRoomNotFound
	}

	query := `INSERT INTO measurement_sessions (` + sessionColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.ExecContext(ctx, query,
		s.ID, s.RoomID,
		s.Metadata.Date, s.Metadata.Temperature, s.Metadata.Humidity, s.Metadata.DeviceName,
		points, s.SketchPNG,
		s.Artifact.Name, s.Artifact.ContentType, digest, s.Artifact.Size,
		s.CreatedAt,
	); err != nil {
		return models.MeasurementSession{}, fmt.Errorf("failed to append session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.MeasurementSession{}, fmt.Errorf("failed to commit session: %w", err)
	}

	return s, nil
}

// ListSessions returns the history of a room, oldest first
func (dm *DatabaseManager) ListSessions(ctx context.Context, roomID uuid.UUID) ([]models.MeasurementSession, error) {
	if _, err := dm.GetRoom(ctx, roomID); err != nil {
		return nil, err
	}

	query := `SELECT ` + sessionColumns + `
        FROM measurement_sessions
        WHERE room_id = $1
        ORDER BY created_at ASC, id ASC`

	rows, err := dm.QueryWithHealthCheck(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.MeasurementSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// LatestSession returns the newest session of a room, or nil when the room
// has no history
func (dm *DatabaseManager) LatestSession(ctx context.Context, roomID uuid.UUID) (*models.MeasurementSession, error) {
	query := `SELECT ` + sessionColumns + `
        FROM measurement_sessions
        WHERE room_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT 1`

	s, err := scanSession(dm.QueryRowWithHealthCheck(ctx, query, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := dm.GetRoom(ctx, roomID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (dm *DatabaseManager) beginTx(ctx context.Context) (*sql.Tx, error) {
	if err := dm.healthChecker.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	tx, err := dm.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (models.MeasurementSession, error) {
	var s models.MeasurementSession
	var points []byte
	var digest sql.NullString

	err := row.Scan(
		&s.ID, &s.RoomID,
		&s.Metadata.Date, &s.Metadata.Temperature, &s.Metadata.Humidity, &s.Metadata.DeviceName,
		&points, &s.SketchPNG,
		&s.Artifact.Name, &s.Artifact.ContentType, &digest, &s.Artifact.Size,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return s, err
	}
	if err != nil {
		return s, fmt.Errorf("failed to scan session: %w", err)
	}

	s.Artifact.Digest = digest.String
	if err := json.Unmarshal(points, &s.Points); err != nil {
		return s, fmt.Errorf("failed to parse points of session %s: %w", s.ID, err)
	}

	return s, nil
}
