package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/artifacts"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/config"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/database"
	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T) (*EditorRegistry, models.Room, *fakeClock) {
	t.Helper()

	store := database.NewMemoryStore()
	room, err := store.CreateRoom(context.Background(), models.Room{Name: "Flur"})
	require.NoError(t, err)

	artifactStore, err := artifacts.NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)}
	registry := NewEditorRegistry(store, artifactStore, config.Default().Editor, nil)
	registry.now = clock.Now
	return registry, room, clock
}

func TestEditorRegistry_CloseIdle(t *testing.T) {
	registry, room, clock := newTestRegistry(t)
	ctx := context.Background()

	stale, err := registry.Open(ctx, room.ID, openEditorRequest{})
	require.NoError(t, err)
	clock.Advance(90 * time.Minute)

	fresh, err := registry.Open(ctx, room.ID, openEditorRequest{})
	require.NoError(t, err)
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 1, registry.CloseIdle(time.Hour))
	assert.Equal(t, 1, registry.Len())

	_, ok := registry.Get(stale.editor.ID())
	assert.False(t, ok, "stale editor should be closed")
	_, ok = registry.Get(fresh.editor.ID())
	assert.True(t, ok)

	// Get marks the editor as used
	clock.Advance(59 * time.Minute)
	assert.Equal(t, 0, registry.CloseIdle(time.Hour))
}

func TestEditorSweeper(t *testing.T) {
	registry, room, clock := newTestRegistry(t)

	_, err := registry.Open(context.Background(), room.ID, openEditorRequest{})
	require.NoError(t, err)
	clock.Advance(3 * time.Hour)

	sweeper := NewEditorSweeper(registry, time.Hour, 10*time.Millisecond, nil)
	sweeper.Start()
	defer sweeper.Stop()

	assert.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}

func TestSweepInterval(t *testing.T) {
	assert.Equal(t, 30*time.Minute, sweepInterval(2*time.Hour))
	assert.Equal(t, time.Minute, sweepInterval(time.Minute))
}
