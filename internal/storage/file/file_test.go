package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kharcha/internal/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir)
	require.NoError(t, err)

	_, found, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, "expenses", []byte(`{"version":1}`)))
	got, found, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"version":1}`, string(got))

	onDisk, err := os.ReadFile(filepath.Join(dir, "expenses.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(onDisk))

	// A second store over the same directory sees the persisted value.
	s2, err := New(dir)
	require.NoError(t, err)
	got, found, err = s2.Get(ctx, "expenses")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `{"version":1}`, string(got))
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "expenses", []byte("[]")))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "expenses.json", entries[0].Name())
}

func TestFileStoreRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape", `a\b`, "a/b"} {
		err := s.Put(ctx, key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFileStoreClosed(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, _, err = s.Get(context.Background(), "expenses")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
