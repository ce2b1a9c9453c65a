package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	MemoryStore
	saveErr, loadErr, clearErr error
}

func (f *failingStore) Load(ctx context.Context) (State, error) {
	if f.loadErr != nil {
		return State{}, f.loadErr
	}
	return f.MemoryStore.Load(ctx)
}

func (f *failingStore) Save(ctx context.Context, st State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.MemoryStore.Save(ctx, st)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.MemoryStore.Clear(ctx)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestContext_InactiveByDefault(t *testing.T) {
	c := New(NewMemoryStore(), logging.Nop())
	assert.False(t, c.Active())
	assert.Empty(t, c.Principal())
	assert.True(t, isClosed(c.Done()), "inactive session must report done")
}

func TestContext_BeginEnd(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, logging.Nop())
	c.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, c.Begin(ctx, "alice"))
	assert.True(t, c.Active())
	assert.Equal(t, "alice", c.Principal())

	done := c.Done()
	assert.False(t, isClosed(done))

	persisted, _ := store.Load(ctx)
	assert.Equal(t, State{Active: true, Principal: "alice", StartedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}, persisted)

	require.NoError(t, c.End(ctx))
	assert.False(t, c.Active())
	assert.True(t, isClosed(done))

	persisted, _ = store.Load(ctx)
	assert.False(t, persisted.Active)
}

func TestContext_BeginTwiceKeepsDoneChannel(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), logging.Nop())

	require.NoError(t, c.Begin(ctx, "alice"))
	done := c.Done()
	require.NoError(t, c.Begin(ctx, "bob"))

	assert.Equal(t, "bob", c.Principal())
	assert.False(t, isClosed(done))
	require.NoError(t, c.End(ctx))
	assert.True(t, isClosed(done))
}

func TestContext_EndWhenInactiveIsSafe(t *testing.T) {
	c := New(NewMemoryStore(), logging.Nop())
	require.NoError(t, c.End(context.Background()))
	require.NoError(t, c.End(context.Background()))
}

func TestContext_NewSessionAfterEndHasFreshDone(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), logging.Nop())

	require.NoError(t, c.Begin(ctx, "alice"))
	first := c.Done()
	require.NoError(t, c.End(ctx))
	require.NoError(t, c.Begin(ctx, "alice"))

	assert.True(t, isClosed(first))
	assert.False(t, isClosed(c.Done()))
}

func TestContext_BeginRequiresPrincipal(t *testing.T) {
	c := New(NewMemoryStore(), logging.Nop())
	require.ErrorIs(t, c.Begin(context.Background(), ""), ErrNoPrincipal)
	assert.False(t, c.Active())
}

func TestContext_BeginSaveErrorLeavesInactive(t *testing.T) {
	boom := errors.New("disk full")
	c := New(&failingStore{saveErr: boom}, logging.Nop())

	err := c.Begin(context.Background(), "alice")
	require.ErrorIs(t, err, boom)
	assert.False(t, c.Active())
}

func TestContext_Restore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, State{Active: true, Principal: "carol"}))

	c := New(store, logging.Nop())
	require.NoError(t, c.Restore(ctx))
	assert.True(t, c.Active())
	assert.Equal(t, "carol", c.Principal())
	assert.False(t, isClosed(c.Done()))
}

func TestContext_RestoreInactiveAndErrors(t *testing.T) {
	ctx := context.Background()

	c := New(NewMemoryStore(), logging.Nop())
	require.NoError(t, c.Restore(ctx))
	assert.False(t, c.Active())

	boom := errors.New("corrupt")
	c = New(&failingStore{loadErr: boom}, logging.Nop())
	require.ErrorIs(t, c.Restore(ctx), boom)
}

func TestContext_EndClearErrorStillDeactivates(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("locked")
	store := &failingStore{}
	c := New(store, logging.Nop())
	require.NoError(t, c.Begin(ctx, "alice"))

	store.clearErr = boom
	require.ErrorIs(t, c.End(ctx), boom)
	assert.False(t, c.Active())
}
