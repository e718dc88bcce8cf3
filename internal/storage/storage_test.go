package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceScraper/internal/models"
)

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(Config{Type: "MONGO"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such storage type")
}

func TestNewBuildsConfiguredSink(t *testing.T) {
	sink, err := New(Config{
		Type:    models.StorageSQLite,
		Options: map[string]string{"path": filepath.Join(t.TempDir(), "products.db")},
	})
	require.NoError(t, err)
	require.IsType(t, &SQLiteStorage{}, sink)
	sink.(*SQLiteStorage).Close()
}

func TestOptionHelpers(t *testing.T) {
	opts := map[string]string{"host": "db.internal", "empty": ""}

	assert.Equal(t, "db.internal", option(opts, "host", "localhost"))
	assert.Equal(t, "localhost", option(opts, "missing", "localhost"))
	assert.Equal(t, "localhost", option(opts, "empty", "localhost"))

	v, err := requiredOption(opts, "host")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", v)

	_, err = requiredOption(opts, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required storage option: missing")
}
