package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/gamesession/pkg/adapters/file"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	tests.SessionStoreContractTest(t, store)
}

func TestFileStore_EscapesPlayerIDs(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()
	player := domain.ActorID("team/alice:1")

	require.NoError(t, store.Save(ctx, player, domain.NewSessionRecord()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "the record must be a single flat file")
	assert.Equal(t, "team%2Falice:1.json", entries[0].Name())

	players, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ActorID{player}, players)
}

func TestFileStore_IgnoresLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-123.json.partial"), []byte("{"), 0644))

	players, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, players)
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "missing"))
	players, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, players)
}
