package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// testStore runs the same checks against every Store implementation
func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("CreateRoom_Validation", func(t *testing.T) {
		if _, err := store.CreateRoom(ctx, models.Room{Name: "  "}); err == nil {
			t.Error("Expected error for empty room name")
		}
	})

	room, err := store.CreateRoom(ctx, models.Room{ProjectTitle: " Muster AG ", Name: "Küche"})
	if err != nil {
		t.Fatalf("Expected CreateRoom to succeed: %v", err)
	}
	if room.ID == uuid.Nil {
		t.Fatal("Expected room id to be assigned")
	}
	if room.ProjectTitle != "Muster AG" {
		t.Errorf("Expected trimmed project title, got %q", room.ProjectTitle)
	}

	t.Run("GetRoom", func(t *testing.T) {
		got, err := store.GetRoom(ctx, room.ID)
		if err != nil {
			t.Fatalf("Expected GetRoom to succeed: %v", err)
		}
		if got.Name != "Küche" {
			t.Errorf("Expected name Küche, got %q", got.Name)
		}

		if _, err := store.GetRoom(ctx, uuid.New()); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("LatestSession_Empty", func(t *testing.T) {
		latest, err := store.LatestSession(ctx, room.ID)
		if err != nil {
			t.Fatalf("Expected LatestSession to succeed: %v", err)
		}
		if latest != nil {
			t.Errorf("Expected no session, got %+v", latest)
		}
	})

	base := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	first := models.MeasurementSession{
		RoomID:    room.ID,
		Metadata:  models.SessionMetadata{Date: "2026-10-01", DeviceName: "Gann"},
		Points:    []models.MeasurementPoint{{ID: uuid.New(), PointName: "Messpunkt 1", WallValue: "40"}},
		SketchPNG: []byte{0x89, 'P', 'N', 'G'},
		Artifact:  models.ArtifactRef{Name: "Messprotokoll_Muster_AG_Küche.pdf", ContentType: "application/pdf", Digest: fakeDigest("a"), Size: 10},
		CreatedAt: base,
	}
	second := first
	second.Points = []models.MeasurementPoint{{ID: first.Points[0].ID, PointName: "Messpunkt 1", WallValue: "30"}}
	second.Metadata.Date = "2026-10-08"
	second.CreatedAt = base.Add(7 * 24 * time.Hour)

	for _, s := range []models.MeasurementSession{first, second} {
		stored, err := store.AppendSession(ctx, s)
		if err != nil {
			t.Fatalf("Expected AppendSession to succeed: %v", err)
		}
		if stored.ID == uuid.Nil {
			t.Error("Expected session id to be assigned")
		}
	}

	t.Run("AppendSession_UnknownRoom", func(t *testing.T) {
		orphan := first
		orphan.RoomID = uuid.New()
		if _, err := store.AppendSession(ctx, orphan); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("ListSessions", func(t *testing.T) {
		sessions, err := store.ListSessions(ctx, room.ID)
		if err != nil {
			t.Fatalf("Expected ListSessions to succeed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("Expected 2 sessions, got %d", len(sessions))
		}
		if sessions[0].Points[0].WallValue != "40" || sessions[1].Points[0].WallValue != "30" {
			t.Error("Expected sessions ordered oldest first")
		}
		if sessions[0].Artifact.Digest != first.Artifact.Digest {
			t.Errorf("Expected artifact digest to round-trip, got %q", sessions[0].Artifact.Digest)
		}
		if string(sessions[0].SketchPNG) != string(first.SketchPNG) {
			t.Error("Expected sketch snapshot to round-trip")
		}

		if _, err := store.ListSessions(ctx, uuid.New()); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Expected ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("LatestSession", func(t *testing.T) {
		latest, err := store.LatestSession(ctx, room.ID)
		if err != nil {
			t.Fatalf("Expected LatestSession to succeed: %v", err)
		}
		if latest == nil || latest.Metadata.Date != "2026-10-08" {
			t.Errorf("Expected newest session, got %+v", latest)
		}
	})

	t.Run("ListRooms", func(t *testing.T) {
		rooms, err := store.ListRooms(ctx)
		if err != nil {
			t.Fatalf("Expected ListRooms to succeed: %v", err)
		}
		if len(rooms) != 1 {
			t.Fatalf("Expected 1 room, got %d", len(rooms))
		}
		if rooms[0].TotalSessions != 2 {
			t.Errorf("Expected 2 sessions, got %d", rooms[0].TotalSessions)
		}
		if rooms[0].LastSession == nil || !rooms[0].LastSession.Equal(second.CreatedAt) {
			t.Errorf("Expected last session %v, got %v", second.CreatedAt, rooms[0].LastSession)
		}
	})
}

// fakeDigest repeats the first byte of s to digest length
func fakeDigest(s string) string {
	out := make([]byte, 64)
	for i := range out {
		out[i] = s[0]
	}
	return string(out)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	room, err := store.CreateRoom(ctx, models.Room{Name: "Bad"})
	if err != nil {
		t.Fatalf("Expected CreateRoom to succeed: %v", err)
	}

	points := []models.MeasurementPoint{{PointName: "Messpunkt 1", WallValue: "1"}}
	if _, err := store.AppendSession(ctx, models.MeasurementSession{RoomID: room.ID, Points: points}); err != nil {
		t.Fatalf("Expected AppendSession to succeed: %v", err)
	}
	points[0].WallValue = "changed"

	sessions, _ := store.ListSessions(ctx, room.ID)
	sessions[0].Points[0].WallValue = "changed again"

	sessions, _ = store.ListSessions(ctx, room.ID)
	if sessions[0].Points[0].WallValue != "1" {
		t.Errorf("Expected stored session to be unaffected, got %q", sessions[0].Points[0].WallValue)
	}
}

func TestDatabaseManager_Store(t *testing.T) {
	dm := newTestManager(t)

	testStore(t, dm)
}

func TestDatabaseManager_SessionsAreAppendOnly(t *testing.T) {
	dm := newTestManager(t)

	ctx := context.Background()
	room, err := dm.CreateRoom(ctx, models.Room{Name: "Flur"})
	if err != nil {
		t.Fatalf("Expected CreateRoom to succeed: %v", err)
	}
	s, err := dm.AppendSession(ctx, models.MeasurementSession{RoomID: room.ID})
	if err != nil {
		t.Fatalf("Expected AppendSession to succeed: %v", err)
	}

	_, err = dm.ExecWithHealthCheck(ctx, "UPDATE measurement_sessions SET temperature = '20' WHERE id = $1", s.ID)
	if err == nil {
		t.Error("Expected update of a stored session to be rejected")
	}
}
