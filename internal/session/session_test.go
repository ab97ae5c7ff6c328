package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"ccpp/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartLookupEnd(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Hour)

	s, err := m.Start(ctx, "ana", "Ana Ruiz", false)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.ExpiresAt.IsZero())

	got, err := m.Lookup(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", got.Identity)

	require.NoError(t, m.End(ctx, s.ID))
	_, err = m.Lookup(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	// Ending twice is harmless.
	assert.NoError(t, m.End(ctx, s.ID))
}

func TestManager_RejectsEmptyIdentity(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour)
	_, err := m.Start(context.Background(), "x", "", false)
	assert.True(t, errors.Is(err, core.ErrEmptyIdentity))
}

func TestManager_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	m := NewManager(store, time.Minute)
	m.now = func() time.Time { return now }

	s, err := m.Start(ctx, "ivan", core.All, true)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Lookup(ctx, s.ID)
	assert.True(t, errors.Is(err, core.ErrSessionExpired))

	_, err = store.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "expired session should be removed")
}

func TestManager_Purge(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewManager(NewMemoryStore(), time.Minute)
	m.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := m.Start(ctx, "ana", "Ana", false)
		require.NoError(t, err)
	}
	now = now.Add(time.Hour)
	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestManager_LookupBlankID(t *testing.T) {
	m := NewManager(NewMemoryStore(), 0)
	_, err := m.Lookup(context.Background(), " ")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSweeper_CleanExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewManager(NewMemoryStore(), time.Minute)
	m.now = func() time.Time { return now }

	first, err := m.Start(ctx, "ana", "Ana", false)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = m.Start(ctx, "luis", "Luis", false)
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	sweeper := m.Sweeper(time.Second)
	assert.Equal(t, 1, sweeper.CleanExpired())
	assert.Equal(t, 0, sweeper.CleanExpired())

	_, err = m.Lookup(ctx, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
