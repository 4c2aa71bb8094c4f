package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeCode_SplitsOnWhitespace(t *testing.T) {
	// Given: text with whitespace
	text := "sales order"

	// When: tokenizing
	tokens := TokenizeCode(text)

	// Then: splits into separate tokens
	require.Len(t, tokens, 2)
	assert.Equal(t, "sales", tokens[0])
	assert.Equal(t, "order", tokens[1])
}

func TestTokenizeCode_SplitsIdentifiers(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "table name",
			input:  "C_BPartner",
			expect: []string{"partner"},
		},
		{
			name:   "pascal case",
			input:  "SalesOrder",
			expect: []string{"sales", "order"},
		},
		{
			name:   "acronym",
			input:  "getHTTPRequest",
			expect: []string{"get", "http", "request"},
		},
		{
			name:   "punctuation",
			input:  "product.zul (form)",
			expect: []string{"product", "zul", "form"},
		},
		{
			name:   "accented letters",
			input:  "Órden de Venta",
			expect: []string{"órden", "de", "venta"},
		},
		{
			name:   "short tokens dropped",
			input:  "a b cd",
			expect: []string{"cd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, TokenizeCode(tt.input))
		})
	}
}

func TestTokenizeCode_Empty(t *testing.T) {
	assert.Empty(t, TokenizeCode(""))
	assert.Empty(t, TokenizeCode("  ,;  "))
}

func TestSplitCamelCase(t *testing.T) {
	assert.Equal(t, []string{"B", "Partner"}, SplitCamelCase("BPartner"))
	assert.Equal(t, []string{"get", "User", "By", "Id"}, SplitCamelCase("getUserById"))
	assert.Equal(t, []string{}, SplitCamelCase(""))
}

func TestAnalyzeText_FiltersStopWords(t *testing.T) {
	stop := BuildStopWordMap(DefaultStopWords)

	assert.Equal(t, []string{"orden", "venta"}, AnalyzeText("Orden de Venta", stop))
	assert.Equal(t, []string{"business", "partner"}, AnalyzeText("The Business Partner", stop))
}

func TestBuildStopWordMap_LowerCases(t *testing.T) {
	m := BuildStopWordMap([]string{"The", "AND"})

	_, ok := m["the"]
	assert.True(t, ok)
	_, ok = m["and"]
	assert.True(t, ok)
}
