package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/mediagate"
	"github.com/sagarc03/mediagate/config"
	"github.com/sagarc03/mediagate/database"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Service: config.ServiceConfig{CleanupTimeout: 5},
		Database: database.Config{
			Type:   "sqlite",
			DSN:    filepath.Join(dir, "mediagate.db"),
			Tables: mediagate.DefaultTables(),
		},
		Storage: config.StorageConfig{
			Type: "filesystem",
			Path: filepath.Join(dir, "data"),
		},
	}
}

func TestOpenBackend_Migrate(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	b, err := openBackend(ctx, cfg, true)
	require.NoError(t, err)
	defer b.Close()

	meta, err := b.service.Create(ctx, mediagate.CreateObject{Key: "avatar.png"}, bytes.NewReader([]byte("0123456789")))
	require.NoError(t, err)
	assert.Equal(t, int64(10), meta.FileSizeBytes)

	_, rc, err := b.service.Get(ctx, "avatar.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestOpenBackend_SchemaMissing(t *testing.T) {
	_, err := openBackend(context.Background(), testConfig(t), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate database schema")
}

func TestOpenStorage_Unsupported(t *testing.T) {
	_, _, err := openStorage(config.StorageConfig{Type: "tape"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestOpenStorage_Filesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")

	store, closeFn, err := openStorage(config.StorageConfig{Type: "filesystem", Path: dir})
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, closeFn())
}
