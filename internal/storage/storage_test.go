package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
}

func TestNewStorage(t *testing.T) {
	s, err := storage.NewStorage(&config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, s)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "cloud"}, zap.NewNop())
	assert.Error(t, err)

	_, err = storage.NewStorage(&config.StorageConfig{Mode: "ftp"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "archive")

	_, err := storage.NewLocalStorage(basePath)
	require.NoError(t, err)

	info, err := os.Stat(basePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorage_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "reports/clienti/2025/01/clienti.csv"
	size, err := ls.Put(ctx, key, "text/csv", strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	rc, err := ls.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	require.NoError(t, ls.Delete(ctx, key))
	require.NoError(t, ls.Delete(ctx, key))

	_, err = ls.Open(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "reports/../../etc/passwd", "."} {
		_, err := ls.Put(ctx, key, "text/plain", strings.NewReader("x"))
		assert.ErrorIs(t, err, storage.ErrInvalidKey, key)
	}
}

func TestCleanKey(t *testing.T) {
	got, err := storage.CleanKey("/reports//clienti/./a.csv")
	require.NoError(t, err)
	assert.Equal(t, "reports/clienti/a.csv", got)
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, 1, 8, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "reports/fatturato/2025/01/fatturato_20250108T103000Z.pdf", storage.ArchiveKey("fatturato", "pdf", at))
}
