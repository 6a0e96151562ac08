// Package normalize holds the provider-payload hygiene shared by the
// wellness and activity paths: unit conversion, loose presence checks, and
// the recursive cleaner applied to everything before it leaves the service.
package normalize

import (
	"encoding/json"
	"strings"
)

// Keys dropped from every provider payload: internal identifiers with no
// value to clients.
var droppedKeys = map[string]struct{}{
	"ownerId":         {},
	"userProfilePk":   {},
	"permissionId":    {},
	"userRoles":       {},
	"equipmentTypeId": {},
}

// Cleaner strips provider payloads for client consumption. Nulls and
// internal identifier fields are dropped, containers that clean away to
// nothing are dropped with them, and string values that parse as embedded
// JSON are decoded in place (tolerating the provider's doubled-quote
// escaping). Zero values are legitimate measurements and always survive.
//
// Decoding embedded JSON means a numeric string becomes a number. Fields
// that must stay textual verbatim go in KeepStringKeys: a string value under
// such a key is passed through untouched.
type Cleaner struct {
	KeepStringKeys map[string]struct{}
}

// KeepStrings builds a Cleaner that never decodes string values under the
// given keys.
func KeepStrings(keys ...string) Cleaner {
	keep := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keep[k] = struct{}{}
	}
	return Cleaner{KeepStringKeys: keep}
}

// Clean returns the cleaned value, or nil when the value cleans away
// entirely.
func (c Cleaner) Clean(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			if _, drop := droppedKeys[k]; drop || strings.Contains(k, "endConditionCompare") {
				continue
			}
			if s, ok := item.(string); ok {
				if _, keep := c.KeepStringKeys[k]; keep {
					out[k] = s
					continue
				}
			}
			if cleaned := c.Clean(item); cleaned != nil {
				out[k] = cleaned
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if cleaned := c.Clean(item); cleaned != nil {
				out = append(out, cleaned)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(strings.ReplaceAll(val, `""`, `"`)), &parsed); err == nil {
			return c.Clean(parsed)
		}
		return val
	default:
		return v
	}
}
