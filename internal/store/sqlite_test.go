package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteGateway_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	g, err := NewSQLiteGateway(Config{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, g.Create(ctx, "process_es", doc("9", "Generar Facturas")))
	require.NoError(t, g.Close())

	g, err = NewSQLiteGateway(Config{DataDir: dir})
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	got, err := g.Get(ctx, "process_es", "9")
	require.NoError(t, err)
	assert.Contains(t, string(got.Source), "Generar Facturas")

	res, err := g.Search(ctx, "process_es", SearchRequest{Query: "factu", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, ids(res))
	assert.FileExists(t, sqlitePath(dir))
}

func TestSQLiteGateway_CorruptFileIsReplaced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(sqlitePath(dir), []byte("not a database at all, just text"), 0644))

	g, err := NewSQLiteGateway(Config{DataDir: dir})
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	names, err := g.Indices(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestSQLiteGateway_IndicesAreIsolated(t *testing.T) {
	g, err := NewSQLiteGateway(Config{})
	require.NoError(t, err)
	defer func() { _ = g.Close() }()
	ctx := context.Background()

	seed(t, g, "menu_en", doc("1", "Sales Order"))
	seed(t, g, "menu_es", doc("1", "Orden de Venta"))

	res, err := g.Search(ctx, "menu_en", SearchRequest{Query: "orden", Size: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	res, err = g.Search(ctx, "menu_es", SearchRequest{Query: "orden venta", Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(res))
}

func TestBuildMatchExpression(t *testing.T) {
	assert.Equal(t, `"sales" "ord"*`, buildMatchExpression([]string{"sales", "ord"}))
	assert.Equal(t, `"a""b"*`, buildMatchExpression([]string{`a"b`}))
}
