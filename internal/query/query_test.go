package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/dictionary/internal/document"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/store"
	"github.com/Aman-CERP/dictionary/internal/tenant"
)

func newGateway(t *testing.T) store.Gateway {
	t.Helper()
	g, err := store.NewGateway(store.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func put(t *testing.T, g store.Gateway, index, id, name string) {
	t.Helper()
	src := fmt.Sprintf(`{"id":%s,"name":%q,"index":%q}`, id, name, index)
	require.NoError(t, g.Create(context.Background(), index, &store.Document{
		ID: id, Content: name, Source: json.RawMessage(src),
	}))
}

func names(t *testing.T, items []json.RawMessage) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, raw := range items {
		var v struct {
			Name string `json:"name"`
		}
		require.NoError(t, json.Unmarshal(raw, &v))
		out = append(out, v.Name)
	}
	return out
}

func TestGetByID_PrefersMostSpecificIndex(t *testing.T) {
	g := newGateway(t)
	put(t, g, "menu", "10", "Base Sales")
	put(t, g, "menu_en_7", "10", "Client Sales")

	svc := NewService(g, Options{})
	tc := tenant.Context{Language: "en", ClientID: "7", RoleID: "102", UserID: "1000"}

	// When: fetching with a full context
	body, found, err := svc.GetByID(context.Background(), document.KindMenu, "10", tc)

	// Then: the client-level copy wins over the base index
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(body), "Client Sales")
}

func TestGetByID_FallsThroughWhenSpecificIndexLacksID(t *testing.T) {
	g := newGateway(t)
	put(t, g, "window", "143", "Sales Order")
	put(t, g, "window_en", "200", "Other")

	svc := NewService(g, Options{})

	body, found, err := svc.GetByID(context.Background(), document.KindWindow, "143", tenant.Context{Language: "en"})

	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, string(body), `"index":"window"`)
}

func TestGetByID_NotFoundIsNotAnError(t *testing.T) {
	svc := NewService(newGateway(t), Options{})

	body, found, err := svc.GetByID(context.Background(), document.KindForm, "1", tenant.Context{Language: "en"})

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, body)
}

func TestList_UsesFirstExistingCandidate(t *testing.T) {
	g := newGateway(t)
	put(t, g, "process", "1", "Base Process")
	put(t, g, "process_en_7", "2", "Client Process")

	svc := NewService(g, Options{})
	tc := tenant.Context{Language: "en", ClientID: "7", RoleID: "102"}

	items, err := svc.List(context.Background(), document.KindProcess, tc, "", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Client Process"}, names(t, items))

	index, ok, err := svc.ResolveIndex(context.Background(), document.KindProcess, tc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "process_en_7", index)
}

func TestList_NoIndexYieldsEmptyList(t *testing.T) {
	svc := NewService(newGateway(t), Options{})

	items, err := svc.List(context.Background(), document.KindBrowser, tenant.Context{}, "sales", nil)

	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestList_SearchValueFilters(t *testing.T) {
	g := newGateway(t)
	put(t, g, "browser", "1", "Sales Order Browse")
	put(t, g, "browser", "2", "Invoice Browse")

	svc := NewService(g, Options{})

	items, err := svc.List(context.Background(), document.KindBrowser, tenant.Context{}, "invoice", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice Browse"}, names(t, items))
}

func TestList_Pagination(t *testing.T) {
	g := newGateway(t)
	for i := 1; i <= 5; i++ {
		put(t, g, "menu", fmt.Sprint(i), fmt.Sprintf("Menu %d", i))
	}

	svc := NewService(g, Options{DefaultPageSize: 2, MaxPageSize: 3})
	ctx := context.Background()

	tests := []struct {
		name     string
		page     *Pagination
		expected []string
	}{
		{"default first page", nil, []string{"Menu 1", "Menu 2"}},
		{"second page", &Pagination{Number: 2}, []string{"Menu 3", "Menu 4"}},
		{"explicit size", &Pagination{Number: 1, Size: 3}, []string{"Menu 1", "Menu 2", "Menu 3"}},
		{"size capped at max", &Pagination{Number: 1, Size: 50}, []string{"Menu 1", "Menu 2", "Menu 3"}},
		{"past the end", &Pagination{Number: 9}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.List(ctx, document.KindMenu, tenant.Context{}, "", tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, names(t, items))
		})
	}
}

// failingGateway fails every call with err.
type failingGateway struct {
	store.Gateway
	err error
}

func (f *failingGateway) Get(ctx context.Context, index, id string) (*store.Document, error) {
	return nil, f.err
}

func (f *failingGateway) Exists(ctx context.Context, index string) (bool, error) {
	return false, f.err
}

func TestQueries_EngineFailureIsQueryError(t *testing.T) {
	engineErr := errors.New("engine unreachable")
	svc := NewService(&failingGateway{err: engineErr}, Options{})
	ctx := context.Background()

	_, found, err := svc.GetByID(ctx, document.KindMenu, "1", tenant.Context{})
	require.Error(t, err)
	assert.False(t, found)
	assert.Equal(t, serrors.ErrCodeQueryFailed, serrors.GetCode(err))
	assert.ErrorIs(t, err, engineErr)

	_, err = svc.List(ctx, document.KindMenu, tenant.Context{}, "", nil)
	require.Error(t, err)
	assert.Equal(t, serrors.ErrCodeQueryFailed, serrors.GetCode(err))
	assert.Contains(t, err.Error(), "engine unreachable")
}

type recordingObserver struct {
	ops []string
}

func (r *recordingObserver) ObserveQuery(kind, op string, d time.Duration, err error) {
	r.ops = append(r.ops, kind+":"+op)
}

func TestService_ReportsTimings(t *testing.T) {
	obs := &recordingObserver{}
	svc := NewService(newGateway(t), Options{Observer: obs})

	_, _, _ = svc.GetByID(context.Background(), document.KindForm, "1", tenant.Context{})
	_, _ = svc.List(context.Background(), document.KindWindow, tenant.Context{}, "", nil)

	assert.Equal(t, []string{"form:get", "window:list"}, obs.ops)
}

func TestNewService_NormalizesOptions(t *testing.T) {
	svc := NewService(nil, Options{DefaultPageSize: 5000, MaxPageSize: 10})

	from, size := svc.window(&Pagination{Number: 3})
	assert.Equal(t, 10, size)
	assert.Equal(t, 20, from)

	svc = NewService(nil, Options{})
	from, size = svc.window(nil)
	assert.Equal(t, 0, from)
	assert.Equal(t, DefaultPageSize, size)
}
