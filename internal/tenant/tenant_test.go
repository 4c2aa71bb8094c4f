package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_FullContext(t *testing.T) {
	// Given: every scope value present
	ctx := Context{Language: "EN", ClientID: "7", RoleID: "102", UserID: "1000"}

	// When: resolving the menu index
	got := Resolve("Menu", ctx)

	// Then: the name carries all segments, lower-cased
	assert.Equal(t, "menu_en_7_102_1000", got)
}

func TestResolve_UserAbsentFallsBackToRole(t *testing.T) {
	ctx := Context{Language: "en", ClientID: "7", RoleID: "102"}

	assert.Equal(t, "menu_en_7_102", Resolve("menu", ctx))
}

func TestIndexName_LanguageAndClient(t *testing.T) {
	ctx := Context{Language: "en", ClientID: "7"}

	assert.Equal(t, "menu_en_7", IndexName("menu", ctx, LevelClient))
	assert.Equal(t, "menu_en_7", IndexName("menu", ctx, LevelUser))
	assert.Equal(t, "menu_en", IndexName("menu", ctx, LevelLanguage))
	assert.Equal(t, "menu", IndexName("menu", ctx, LevelBase))
}

func TestIndexName_GapStopsResolution(t *testing.T) {
	tests := []struct {
		name     string
		ctx      Context
		expected string
	}{
		{
			name:     "empty context",
			ctx:      Context{},
			expected: "browser",
		},
		{
			name:     "language missing hides deeper values",
			ctx:      Context{ClientID: "7", RoleID: "102", UserID: "1000"},
			expected: "browser",
		},
		{
			name:     "client missing",
			ctx:      Context{Language: "es_MX", RoleID: "102"},
			expected: "browser_es_mx",
		},
		{
			name:     "whitespace counts as absent",
			ctx:      Context{Language: "en", ClientID: "  "},
			expected: "browser_en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.expected, Resolve("browser", tt.ctx))
			})
		})
	}
}

func TestIndexName_Deterministic(t *testing.T) {
	ctx := Context{Language: "en", ClientID: "11", RoleID: "3"}

	first := Resolve("window", ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve("window", ctx))
	}
}

func TestCandidates_MostSpecificFirst(t *testing.T) {
	ctx := Context{Language: "en", ClientID: "7", RoleID: "102", UserID: "1000"}

	got := Candidates("process", ctx)

	assert.Equal(t, []string{
		"process_en_7_102_1000",
		"process_en_7_102",
		"process_en_7",
		"process_en",
		"process",
	}, got)
}

func TestCandidates_EmptyContext(t *testing.T) {
	assert.Equal(t, []string{"form"}, Candidates("form", Context{}))
}

func TestContext_Depth(t *testing.T) {
	assert.Equal(t, LevelBase, Context{}.Depth())
	assert.Equal(t, LevelRole, Context{Language: "en", ClientID: "1", RoleID: "2"}.Depth())
	assert.Equal(t, LevelUser, Context{Language: "en", ClientID: "1", RoleID: "2", UserID: "3"}.Depth())
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "base", LevelBase.String())
	assert.Equal(t, "role", LevelRole.String())
	assert.Equal(t, "unknown", Level(9).String())
}
