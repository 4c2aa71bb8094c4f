// Package tenant computes the physical index name that answers a request for
// a given language, client, role and user.
//
// Index names cascade from the entity base name:
//
//	menu -> menu_en -> menu_en_7 -> menu_en_7_102 -> menu_en_7_102_1000
//
// A level is appended only when its own value is present. Resolution stops at
// the first absent value, so asking for a deeper level than the context
// supports yields the deepest resolvable name instead of failing.
package tenant

import (
	"strings"
)

// Level addresses one step of the index cascade.
type Level int

const (
	// LevelBase is the entity base name alone.
	LevelBase Level = iota
	// LevelLanguage appends the language.
	LevelLanguage
	// LevelClient appends the client id.
	LevelClient
	// LevelRole appends the role id.
	LevelRole
	// LevelUser appends the user id.
	LevelUser
)

// String returns the level name used in logs.
func (l Level) String() string {
	switch l {
	case LevelBase:
		return "base"
	case LevelLanguage:
		return "language"
	case LevelClient:
		return "client"
	case LevelRole:
		return "role"
	case LevelUser:
		return "user"
	default:
		return "unknown"
	}
}

// Context identifies who a request or document belongs to.
// Empty fields are absent.
type Context struct {
	Language string
	ClientID string
	RoleID   string
	UserID   string
}

// segments returns the context values in cascade order.
func (c Context) segments() [LevelUser]string {
	return [LevelUser]string{c.Language, c.ClientID, c.RoleID, c.UserID}
}

// Depth returns the deepest level the context can resolve.
func (c Context) Depth() Level {
	depth := LevelBase
	for _, v := range c.segments() {
		if strings.TrimSpace(v) == "" {
			break
		}
		depth++
	}
	return depth
}

// IndexName returns the lower-cased index name for base, resolved up to level.
// Levels beyond the context's depth are dropped.
func IndexName(base string, ctx Context, level Level) string {
	if level > ctx.Depth() {
		level = ctx.Depth()
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(base))
	segs := ctx.segments()
	for i := 0; i < int(level); i++ {
		sb.WriteByte('_')
		sb.WriteString(strings.TrimSpace(segs[i]))
	}
	return strings.ToLower(sb.String())
}

// Resolve returns the most specific index name for base.
func Resolve(base string, ctx Context) string {
	return IndexName(base, ctx, LevelUser)
}

// Candidates returns every resolvable index name for base, most specific
// first and ending with the base name.
func Candidates(base string, ctx Context) []string {
	depth := ctx.Depth()
	names := make([]string, 0, int(depth)+1)
	for level := depth; level >= LevelBase; level-- {
		names = append(names, IndexName(base, ctx, level))
	}
	return names
}
