package document

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Aman-CERP/dictionary/internal/tenant"
)

// Entity is a dictionary document bound for a search index.
// The set of implementations is closed to this package.
type Entity interface {
	// Kind returns the entity kind, fixed by the topic it was read from.
	Kind() Kind
	// DocumentID returns the id the document is stored under.
	DocumentID() string
	// Scope returns the tenant the document was published for.
	Scope() tenant.Context
	// SearchText returns the text indexed for free-text search.
	SearchText() string
	// Body returns the JSON stored for the document.
	Body() ([]byte, error)

	sealed()
}

// Header holds the fields shared by every entity.
type Header struct {
	ID          int64  `json:"id"`
	UUID        string `json:"uuid,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Help        string `json:"help,omitempty"`
	IsActive    bool   `json:"is_active,omitempty"`

	Language ScopeValue `json:"language,omitempty"`
	ClientID ScopeValue `json:"client_id,omitempty"`
	RoleID   ScopeValue `json:"role_id,omitempty"`
	UserID   ScopeValue `json:"user_id,omitempty"`
}

// DocumentID implements Entity.
func (h *Header) DocumentID() string {
	return strconv.FormatInt(h.ID, 10)
}

// Scope implements Entity.
func (h *Header) Scope() tenant.Context {
	return tenant.Context{
		Language: h.Language.String(),
		ClientID: h.ClientID.String(),
		RoleID:   h.RoleID.String(),
		UserID:   h.UserID.String(),
	}
}

func (h *Header) sealed() {}

func (h *Header) text() []string {
	return []string{h.Name, h.Description, h.Help}
}

// Reference points at another dictionary entity.
type Reference struct {
	ID   int64  `json:"id,omitempty"`
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`
}

// Menu is a security menu entry.
type Menu struct {
	Header
	Sequence           int        `json:"sequence,omitempty"`
	ParentID           int64      `json:"parent_id,omitempty"`
	IsSummary          bool       `json:"is_summary,omitempty"`
	IsSalesTransaction bool       `json:"is_sales_transaction,omitempty"`
	IsReadOnly         bool       `json:"is_read_only,omitempty"`
	Action             string     `json:"action,omitempty"`
	Window             *Reference `json:"window,omitempty"`
	Process            *Reference `json:"process,omitempty"`
	Form               *Reference `json:"form,omitempty"`
	Browser            *Reference `json:"browser,omitempty"`
}

// Kind implements Entity.
func (m *Menu) Kind() Kind { return KindMenu }

// SearchText implements Entity.
func (m *Menu) SearchText() string {
	parts := append(m.text(), m.Action)
	for _, ref := range []*Reference{m.Window, m.Process, m.Form, m.Browser} {
		if ref != nil {
			parts = append(parts, ref.Name)
		}
	}
	return joinText(parts)
}

// Body implements Entity.
func (m *Menu) Body() ([]byte, error) { return json.Marshal(m) }

// Parameter is a process parameter.
type Parameter struct {
	ID           int64  `json:"id,omitempty"`
	UUID         string `json:"uuid,omitempty"`
	Name         string `json:"name,omitempty"`
	ColumnName   string `json:"column_name,omitempty"`
	DisplayType  int    `json:"display_type,omitempty"`
	Sequence     int    `json:"sequence,omitempty"`
	IsMandatory  bool   `json:"is_mandatory,omitempty"`
	DefaultValue string `json:"default_value,omitempty"`
}

// Process is a process or report definition.
type Process struct {
	Header
	Code       string      `json:"code,omitempty"`
	IsReport   bool        `json:"is_report,omitempty"`
	ShowHelp   string      `json:"show_help,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Kind implements Entity.
func (p *Process) Kind() Kind { return KindProcess }

// SearchText implements Entity.
func (p *Process) SearchText() string {
	parts := append(p.text(), p.Code)
	for _, param := range p.Parameters {
		parts = append(parts, param.Name, param.ColumnName)
	}
	return joinText(parts)
}

// Body implements Entity.
func (p *Process) Body() ([]byte, error) { return json.Marshal(p) }

// BrowseField is a column of a smart browser.
type BrowseField struct {
	ID              int64  `json:"id,omitempty"`
	UUID            string `json:"uuid,omitempty"`
	Name            string `json:"name,omitempty"`
	ColumnName      string `json:"column_name,omitempty"`
	DisplayType     int    `json:"display_type,omitempty"`
	Sequence        int    `json:"sequence,omitempty"`
	IsQueryCriteria bool   `json:"is_query_criteria,omitempty"`
	IsOrderBy       bool   `json:"is_order_by,omitempty"`
	IsDisplayed     bool   `json:"is_displayed,omitempty"`
}

// Browser is a smart browser definition.
type Browser struct {
	Header
	Code                     string        `json:"code,omitempty"`
	TableName                string        `json:"table_name,omitempty"`
	IsUpdateable             bool          `json:"is_updateable,omitempty"`
	IsDeleteable             bool          `json:"is_deleteable,omitempty"`
	IsSelectedByDefault      bool          `json:"is_selected_by_default,omitempty"`
	IsCollapsibleByDefault   bool          `json:"is_collapsible_by_default,omitempty"`
	IsExecutedQueryByDefault bool          `json:"is_executed_query_by_default,omitempty"`
	IsShowTotal              bool          `json:"is_show_total,omitempty"`
	Process                  *Reference    `json:"process,omitempty"`
	Fields                   []BrowseField `json:"fields,omitempty"`
}

// Kind implements Entity.
func (b *Browser) Kind() Kind { return KindBrowser }

// SearchText implements Entity.
func (b *Browser) SearchText() string {
	parts := append(b.text(), b.Code, b.TableName)
	for _, f := range b.Fields {
		parts = append(parts, f.Name, f.ColumnName)
	}
	return joinText(parts)
}

// Body implements Entity.
func (b *Browser) Body() ([]byte, error) { return json.Marshal(b) }

// Field is a window tab field.
type Field struct {
	ID          int64  `json:"id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Name        string `json:"name,omitempty"`
	ColumnName  string `json:"column_name,omitempty"`
	DisplayType int    `json:"display_type,omitempty"`
	Sequence    int    `json:"sequence,omitempty"`
	IsDisplayed bool   `json:"is_displayed,omitempty"`
	IsReadOnly  bool   `json:"is_read_only,omitempty"`
}

// Tab is a window tab.
type Tab struct {
	ID         int64   `json:"id,omitempty"`
	UUID       string  `json:"uuid,omitempty"`
	Name       string  `json:"name,omitempty"`
	TableName  string  `json:"table_name,omitempty"`
	Sequence   int     `json:"sequence,omitempty"`
	TabLevel   int     `json:"tab_level,omitempty"`
	IsReadOnly bool    `json:"is_read_only,omitempty"`
	Fields     []Field `json:"fields,omitempty"`
}

// Window is a window definition.
type Window struct {
	Header
	WindowType         string `json:"window_type,omitempty"`
	IsSalesTransaction bool   `json:"is_sales_transaction,omitempty"`
	Tabs               []Tab  `json:"tabs,omitempty"`
}

// Kind implements Entity.
func (w *Window) Kind() Kind { return KindWindow }

// SearchText implements Entity.
func (w *Window) SearchText() string {
	parts := w.text()
	for _, tab := range w.Tabs {
		parts = append(parts, tab.Name, tab.TableName)
	}
	return joinText(parts)
}

// Body implements Entity.
func (w *Window) Body() ([]byte, error) { return json.Marshal(w) }

// Form is a custom form definition.
type Form struct {
	Header
	FileName string `json:"file_name,omitempty"`
}

// Kind implements Entity.
func (f *Form) Kind() Kind { return KindForm }

// SearchText implements Entity.
func (f *Form) SearchText() string {
	return joinText(append(f.text(), f.FileName))
}

// Body implements Entity.
func (f *Form) Body() ([]byte, error) { return json.Marshal(f) }

func joinText(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
