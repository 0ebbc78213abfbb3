package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	repo, err := NewStateRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	_, found, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Set(ctx, "k", "https://docs.google.com/spreadsheets/d/ABC/edit"))
	value, found, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/ABC/edit", value)

	// Set replaces
	require.NoError(t, repo.Set(ctx, "k", "second"))
	value, _, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	// Delete clears, and deleting an absent key is fine
	require.NoError(t, repo.Delete(ctx, "k"))
	_, found, err = repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, repo.Delete(ctx, "k"))
}

func TestStateRepository_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.db")

	repo, err := NewStateRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Set(ctx, "k", "persisted"))
	require.NoError(t, repo.Close())

	reopened, err := NewStateRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", value)
}
