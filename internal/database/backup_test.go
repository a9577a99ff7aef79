package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	tempDir := t.TempDir()
	storagePath := filepath.Join(tempDir, "backups")

	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(tempDir, "source.db"), &logger)
	require.NoError(t, err)
	defer db.Close()
	seed(t, db)

	t.Run("Backup", func(t *testing.T) {
		path, err := db.Backup(context.Background(), storagePath)
		require.NoError(t, err)
		assert.FileExists(t, path)

		restored, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer restored.Close()
		_, err = restored.GetArtistBySlug(context.Background(), "a")
		assert.NoError(t, err)
	})

	t.Run("PruneBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, "gigbook_old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		removed, err := db.PruneBackups(storagePath, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)

		files, err := os.ReadDir(storagePath)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})
}

func TestBackup_InMemory(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Backup(context.Background(), t.TempDir())
	assert.Error(t, err)
}
