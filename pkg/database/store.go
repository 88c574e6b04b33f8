package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// Store is the room history persistence used by the HTTP API and the CLI
type Store interface {
	CreateRoom(ctx context.Context, room models.Room) (models.Room, error)
	GetRoom(ctx context.Context, id uuid.UUID) (models.Room, error)
	ListRooms(ctx context.Context) ([]models.RoomListItem, error)
	AppendSession(ctx context.Context, s models.MeasurementSession) (models.MeasurementSession, error)
	ListSessions(ctx context.Context, roomID uuid.UUID) ([]models.MeasurementSession, error)
	LatestSession(ctx context.Context, roomID uuid.UUID) (*models.MeasurementSession, error)
}

var (
	_ Store = (*DatabaseManager)(nil)
	_ Store = (*MemoryStore)(nil)
)

// MemoryStore keeps rooms and sessions in process memory. It backs
// `qtool serve --memory` and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[uuid.UUID]models.Room
	sessions map[uuid.UUID][]models.MeasurementSession
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[uuid.UUID]models.Room),
		sessions: make(map[uuid.UUID][]models.MeasurementSession),
	}
}

func (m *MemoryStore) CreateRoom(ctx context.Context, room models.Room) (models.Room, error) {
	if err := room.Validate(); err != nil {
		return models.Room{}, err
	}
	if room.ID == uuid.Nil {
		room.ID = uuid.New()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return room, nil
}

func (m *MemoryStore) GetRoom(ctx context.Context, id uuid.UUID) (models.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[id]
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	return room, nil
}

func (m *MemoryStore) ListRooms(ctx context.Context) ([]models.RoomListItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]models.RoomListItem, 0, len(m.rooms))
	for _, r := range m.rooms {
		item := models.RoomListItem{
			ID:            r.ID,
			ProjectTitle:  r.ProjectTitle,
			Name:          r.Name,
			TotalSessions: len(m.sessions[r.ID]),
		}
		if n := len(m.sessions[r.ID]); n > 0 {
			last := m.sessions[r.ID][n-1].CreatedAt
			item.LastSession = &last
		}
		rooms = append(rooms, item)
	}

	sort.Slice(rooms, func(i, j int) bool {
		if c := strings.Compare(rooms[i].ProjectTitle, rooms[j].ProjectTitle); c != 0 {
			return c < 0
		}
		return rooms[i].Name < rooms[j].Name
	})
	return rooms, nil
}

func (m *MemoryStore) AppendSession(ctx context.Context, s models.MeasurementSession) (models.MeasurementSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[s.RoomID]
	if !ok {
		return models.MeasurementSession{}, ErrRoomNotFound
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.Points = models.ClonePoints(s.Points)
	if s.Points == nil {
		s.Points = []models.MeasurementPoint{}
	}
	s.SketchPNG = append([]byte(nil), s.SketchPNG...)

	m.sessions[s.RoomID] = append(m.sessions[s.RoomID], s)
	room.UpdatedAt = s.CreatedAt
	m.rooms[s.RoomID] = room
	return s, nil
}

func (m *MemoryStore) ListSessions(ctx context.Context, roomID uuid.UUID) ([]models.MeasurementSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.rooms[roomID]; !ok {
		return nil, ErrRoomNotFound
	}
	out := make([]models.MeasurementSession, len(m.sessions[roomID]))
	for i, s := range m.sessions[roomID] {
		s.Points = models.ClonePoints(s.Points)
		out[i] = s
	}
	return out, nil
}

func (m *MemoryStore) LatestSession(ctx context.Context, roomID uuid.UUID) (*models.MeasurementSession, error) {
	sessions, err := m.ListSessions(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	latest := sessions[len(sessions)-1]
	return &latest, nil
}
