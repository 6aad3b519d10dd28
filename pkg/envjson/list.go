package envjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StringList decodes an environment variable holding a JSON array of strings,
// e.g. TOKENS='["access-production-1","access-production-2"]'.
type StringList []string

// An unset or blank variable decodes to an empty list.
func (l *StringList) EnvDecode(val string) error {
	if strings.TrimSpace(val) == "" {
		*l = nil
		return nil
	}

	var items []string
	if err := json.Unmarshal([]byte(val), &items); err != nil {
		return fmt.Errorf("decode json list: %w", err)
	}
	*l = items
	return nil
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}
