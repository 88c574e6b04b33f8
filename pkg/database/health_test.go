package database

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedPortDB returns a lazily connecting handle that can never reach a
// server
func closedPortDB(t *testing.T, port string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", "host=127.0.0.1 port="+port+" user=qtool dbname=qtool sslmode=disable connect_timeout=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewHealthChecker(t *testing.T) {
	db := closedPortDB(t, "1")
	hc := NewHealthChecker(db, 5*time.Second, nil, nil)

	assert.Same(t, db, hc.DB())
	assert.Equal(t, 5*time.Second, hc.checkInterval)
	assert.True(t, hc.IsHealthy(), "a new checker trusts the connection it was given")
	assert.NotNil(t, hc.logger)
}

func TestHealthChecker_StopIsIdempotent(t *testing.T) {
	hc := NewHealthChecker(closedPortDB(t, "1"), time.Hour, nil, nil)

	// without Start
	hc.Stop()
	hc.Stop()

	select {
	case <-hc.stopChan:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Expected stop channel to be closed")
	}
}

func TestHealthChecker_EnsureConnectionWhenUnhealthy(t *testing.T) {
	hc := NewHealthChecker(closedPortDB(t, "1"), time.Hour, nil, nil)
	hc.mu.Lock()
	hc.isHealthy = false
	hc.mu.Unlock()

	err := hc.EnsureConnection(context.Background())
	assert.EqualError(t, err, "database connection is not healthy")
}

func TestHealthChecker_FailedPingMarksUnhealthy(t *testing.T) {
	hc := NewHealthChecker(closedPortDB(t, "1"), time.Hour, nil, nil)

	err := hc.EnsureConnection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database connection check failed")
	assert.False(t, hc.IsHealthy())
}

func TestHealthChecker_CheckReconnects(t *testing.T) {
	replacement := closedPortDB(t, "2")
	reconnects := 0
	hc := NewHealthChecker(closedPortDB(t, "1"), time.Hour, func() (*sql.DB, error) {
		reconnects++
		return replacement, nil
	}, nil)

	hc.checkConnection()

	assert.Equal(t, 1, reconnects)
	assert.Same(t, replacement, hc.DB())
	assert.True(t, hc.IsHealthy())
}

func TestHealthChecker_CheckWithoutReconnect(t *testing.T) {
	db := closedPortDB(t, "1")
	hc := NewHealthChecker(db, time.Hour, nil, nil)

	hc.checkConnection()

	assert.False(t, hc.IsHealthy())
	assert.Same(t, db, hc.DB(), "the connection is kept when reconnect is not configured")

	hc.mu.Lock()
	err := hc.reconnect()
	hc.mu.Unlock()
	assert.EqualError(t, err, "reconnect not configured")
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := NewHealthChecker(closedPortDB(t, "1"), time.Hour, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = hc.IsHealthy()
				_ = hc.DB()
			}
		}()
		go func(healthy bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				hc.mu.Lock()
				hc.isHealthy = healthy
				hc.mu.Unlock()
			}
		}(i%2 == 0)
	}
	wg.Wait()
}

func TestHealthChecker_StartStop(t *testing.T) {
	db := openTestDB(t)
	hc := NewHealthChecker(db, 20*time.Millisecond, nil, nil)

	hc.Start()
	time.Sleep(60 * time.Millisecond)
	hc.Stop()

	assert.True(t, hc.IsHealthy())
	require.NoError(t, hc.EnsureConnection(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, hc.EnsureConnection(ctx))
}
