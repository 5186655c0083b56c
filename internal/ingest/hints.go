package ingest

import (
	"fmt"
	"sort"
	"strings"

	"takeoff-service/internal/models"
)

// property names, lower-cased, that feed each hint
var hintKeys = map[string][]string{
	"isexternal":  {"isexternal", "is_external", "external"},
	"loadbearing": {"loadbearing", "load_bearing", "isloadbearing"},
	"firerating":  {"firerating", "fire_rating"},
	"reference":   {"reference", "ref"},
	"finishtype":  {"finishtype", "finish_type", "finish"},
	"objecttype":  {"objecttype", "object_type", "predefinedtype"},
}

// HintsFromProperties converts an untyped property bag into SemanticHints.
// Nested property sets are searched too; everything that is not a known hint
// is dropped. It returns nil if no hint was found.
func HintsFromProperties(bag map[string]any) *models.SemanticHints {
	if len(bag) == 0 {
		return nil
	}
	flat := make(map[string]any)
	flatten(bag, flat, 0)

	h := &models.SemanticHints{}
	if v, ok := lookup(flat, "isexternal"); ok {
		if b, ok := toBool(v); ok {
			h.IsExternal = &b
		}
	}
	if v, ok := lookup(flat, "loadbearing"); ok {
		if b, ok := toBool(v); ok {
			h.LoadBearing = &b
		}
	}
	if v, ok := lookup(flat, "firerating"); ok {
		h.FireRating = toString(v)
	}
	if v, ok := lookup(flat, "reference"); ok {
		h.Reference = toString(v)
	}
	if v, ok := lookup(flat, "finishtype"); ok {
		h.FinishType = toString(v)
	}
	if v, ok := lookup(flat, "objecttype"); ok {
		h.ObjectType = toString(v)
	}
	if h.Empty() {
		return nil
	}
	return h
}

// flatten lower-cases keys and unwraps {"value": x} wrappers. The first
// occurrence of a key wins, outer levels before nested ones.
func flatten(in map[string]any, out map[string]any, depth int) {
	if depth > 4 {
		return
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var nested []map[string]any
	for _, k := range keys {
		v := in[k]
		key := strings.ToLower(strings.TrimSpace(k))
		if m, ok := v.(map[string]any); ok {
			if inner, wrapped := m["value"]; wrapped {
				if _, exists := out[key]; !exists {
					out[key] = inner
				}
				continue
			}
			nested = append(nested, m)
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = v
		}
	}
	for _, m := range nested {
		flatten(m, out, depth+1)
	}
}

func lookup(flat map[string]any, hint string) (any, bool) {
	for _, k := range hintKeys[hint] {
		if v, ok := flat[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		switch strings.ToUpper(strings.Trim(strings.TrimSpace(t), ".")) {
		case "T", "TRUE", "YES", "1":
			return true, true
		case "F", "FALSE", "NO", "0":
			return false, true
		}
	}
	return false, false
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
