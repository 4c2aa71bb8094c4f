package store

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenRegex matches letter/digit sequences (including underscores for initial split).
// Dictionary names are translated, so any Unicode letter counts.
var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// MinTokenLength is the shortest token kept by TokenizeCode.
const MinTokenLength = 2

// DefaultStopWords are filtered from indexed text and queries.
var DefaultStopWords = []string{
	"the", "of", "and", "or", "to", "in", "for", "on", "by", "with",
	"de", "del", "la", "el", "los", "las", "para", "por", "en", "y",
}

// TokenizeCode splits text with identifier-aware rules.
// It handles camelCase, PascalCase and snake_case (C_BPartner, SalesOrder),
// drops short tokens and lowercases the rest.
func TokenizeCode(text string) []string {
	var tokens []string

	// Split on whitespace and punctuation first
	words := tokenRegex.FindAllString(text, -1)

	for _, word := range words {
		for _, t := range SplitCodeToken(word) {
			lower := strings.ToLower(t)
			if len([]rune(lower)) >= MinTokenLength {
				tokens = append(tokens, lower)
			}
		}
	}

	return tokens
}

// AnalyzeText tokenizes text and removes stop words.
// Indexing and querying both go through it so they agree on terms.
func AnalyzeText(text string, stopWords map[string]struct{}) []string {
	return FilterStopWords(TokenizeCode(text), stopWords)
}

// SplitCodeToken splits camelCase and snake_case identifiers.
func SplitCodeToken(token string) []string {
	var result []string

	if strings.Contains(token, "_") {
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, SplitCamelCase(part)...)
			}
		}
		return result
	}

	return SplitCamelCase(token)
}

// SplitCamelCase splits camelCase and PascalCase identifiers.
// Examples:
//   - "SalesOrder" -> ["Sales", "Order"]
//   - "BPartner" -> ["B", "Partner"]
//   - "getHTTPRequest" -> ["get", "HTTP", "Request"]
func SplitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			// Split if previous is lowercase OR next is lowercase (handles acronyms)
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

// FilterStopWords removes stop words from a token list.
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := stopWords[strings.ToLower(token)]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
