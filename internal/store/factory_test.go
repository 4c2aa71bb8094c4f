package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		input    string
		expected Backend
		wantErr  bool
	}{
		{"", BackendBleve, false},
		{"bleve", BackendBleve, false},
		{"sqlite", BackendSQLite, false},
		{"opensearch", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBackend(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewGateway_SelectsBackend(t *testing.T) {
	g, err := NewGateway(Config{Backend: "sqlite"})
	require.NoError(t, err)
	_, ok := g.(*SQLiteGateway)
	assert.True(t, ok)
	require.NoError(t, g.Close())

	g, err = NewGateway(Config{})
	require.NoError(t, err)
	_, ok = g.(*BleveGateway)
	assert.True(t, ok)
	require.NoError(t, g.Close())

	_, err = NewGateway(Config{Backend: "elastic"})
	assert.Error(t, err)
}

func TestDetectBackend(t *testing.T) {
	ctx := context.Background()

	empty := t.TempDir()
	assert.Equal(t, Backend(""), DetectBackend(empty))

	sqliteDir := t.TempDir()
	g, err := NewSQLiteGateway(Config{DataDir: sqliteDir})
	require.NoError(t, err)
	require.NoError(t, g.Close())
	assert.Equal(t, BackendSQLite, DetectBackend(sqliteDir))

	bleveDir := t.TempDir()
	b, err := NewBleveGateway(Config{DataDir: bleveDir})
	require.NoError(t, err)
	require.NoError(t, b.Create(ctx, "menu", doc("1", "x")))
	require.NoError(t, b.Close())
	assert.Equal(t, BackendBleve, DetectBackend(bleveDir))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "bleve", cfg.Backend)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.NotEmpty(t, cfg.StopWords)
}
