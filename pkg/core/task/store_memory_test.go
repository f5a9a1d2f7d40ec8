package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateGetList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	t1, err := s.Add(ctx, "pick up eggs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), t1.ID)

	got, err := s.Get(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, t1, got)

	t2, err := s.Add(ctx, "water plants")
	require.NoError(t, err)
	assert.Equal(t, int64(2), t2.ID)

	list, err := s.List(ctx, FilterAll)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStore_UpdateCompleteDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	created, err := s.Add(ctx, "draft")
	require.NoError(t, err)

	desc := "final"
	updated, err := s.Update(ctx, created.ID, Changes{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Description)

	completed, err := s.Complete(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, completed.Done)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleted ids are not handed out again.
	next, err := s.Add(ctx, "after delete")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID)
}
