package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ScopeValue is a tenant identifier that may arrive as a JSON string or
// number. It always marshals as a string.
type ScopeValue string

// UnmarshalJSON accepts strings, integers and null.
func (v *ScopeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = ScopeValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("scope value must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*v = ScopeValue(strconv.FormatInt(i, 10))
		return nil
	}
	*v = ScopeValue(n.String())
	return nil
}

// String returns the identifier text.
func (v ScopeValue) String() string {
	return string(v)
}
