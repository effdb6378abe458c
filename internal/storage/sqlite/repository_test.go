package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "data", "kharcha.db")

	repo, err := NewRepository(dbPath)
	require.NoError(t, err)

	_, found, err := repo.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.Put(ctx, "expenses", []byte(`{"version":1,"expenses":[]}`)))
	require.NoError(t, repo.Put(ctx, "expenses", []byte(`{"version":1,"expenses":[{}]}`)))

	got, found, err := repo.Get(ctx, "expenses")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"version":1,"expenses":[{}]}`, string(got))
	require.NoError(t, repo.Close())

	// Reopening runs migrations again (no change) and keeps the data.
	repo, err = NewRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	got, found, err = repo.Get(ctx, "expenses")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"version":1,"expenses":[{}]}`, string(got))
}

func TestRepositoryEmptyValue(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "kharcha.db"))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Put(ctx, "k", nil))
	got, found, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}
