// Package document defines the dictionary entities synchronized into the
// search indices and decodes them from queue records.
package document

import "fmt"

// Kind is one of the closed set of dictionary entity kinds.
// A kind doubles as the topic name and the index base name.
type Kind string

const (
	KindMenu    Kind = "menu"
	KindProcess Kind = "process"
	KindBrowser Kind = "browser"
	KindWindow  Kind = "window"
	KindForm    Kind = "form"
)

// Kinds lists every kind in topic order.
var Kinds = []Kind{KindMenu, KindProcess, KindBrowser, KindWindow, KindForm}

// IndexBase returns the base name of the index family holding this kind.
func (k Kind) IndexBase() string {
	return string(k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMenu, KindProcess, KindBrowser, KindWindow, KindForm:
		return true
	}
	return false
}

// ParseKind converts a topic or kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entity kind: %q", s)
	}
	return k, nil
}
