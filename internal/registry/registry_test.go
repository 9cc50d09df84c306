package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterResolveForget(t *testing.T) {
	r := New()

	r.Register("conn1", "p1", "Sara")

	p, err := r.Resolve("conn1")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
	require.Equal(t, "Sara", p.Name)

	r.Forget("conn1")

	_, err = r.Resolve("conn1")
	require.ErrorIs(t, err, ErrNotRegistered)
	_, err = r.Lookup("p1")
	require.ErrorIs(t, err, ErrNotRegistered)
}

func TestReconnectReplacesHandle(t *testing.T) {
	r := New()

	r.Register("conn1", "p1", "Sara")
	r.Register("conn2", "p1", "Sara")

	if _, err := r.Resolve("conn1"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("stale handle should be gone, got %v", err)
	}
	p, err := r.Resolve("conn2")
	require.NoError(t, err)
	require.Equal(t, "p1", p.ID)
}

func TestSetSession(t *testing.T) {
	r := New()
	r.Register("conn1", "p1", "Sara")

	r.SetSession("p1", "ROOM42")
	p, err := r.Lookup("p1")
	require.NoError(t, err)
	require.Equal(t, "ROOM42", p.SessionID)

	r.SetSession("p1", "")
	p, _ = r.Lookup("p1")
	require.Empty(t, p.SessionID)
}

func TestAnonymousVerifier(t *testing.T) {
	v := Anonymous{}

	id, name, err := v.Verify(context.Background(), "stable-id", "Sara")
	require.NoError(t, err)
	require.Equal(t, "stable-id", id)
	require.Equal(t, "Sara", name)

	id2, name2, err := v.Verify(context.Background(), "", "")
	require.NoError(t, err)
	require.NotEmpty(t, id2)
	require.Contains(t, name2, "player-")
}
