package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), mr
}

func TestCreateGetDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "student-1", "asha")
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "student-1", got.StudentID)
	assert.Equal(t, "asha", got.Username)

	require.NoError(t, s.Delete(ctx, sess.ID))
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, sess.ID), "deleting twice is fine")
}

func TestSessionExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	sess, err := s.Create(ctx, "student-1", "asha")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+sess.ID))

	mr.FastForward(time.Hour + time.Second)
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteForStudent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a1, err := s.Create(ctx, "a", "a")
	require.NoError(t, err)
	_, err = s.Create(ctx, "a", "a")
	require.NoError(t, err)
	b, err := s.Create(ctx, "b", "b")
	require.NoError(t, err)

	n, err := s.DeleteForStudent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Get(ctx, a1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, b.ID)
	assert.NoError(t, err)
}

func TestUnavailable(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.ErrorIs(t, err, ErrUnavailable)

	s, mr := newTestStore(t)
	mr.Close()
	_, err = s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}
