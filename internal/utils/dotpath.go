package utils

import "strings"

// GetPath walks a dotted path ("a.b.c") through nested maps and returns the
// value found, or nil when any segment is missing.
func GetPath(v any, path string) any {
	if path == "" {
		return v
	}
	current := v
	for _, segment := range strings.Split(path, ".") {
		switch m := current.(type) {
		case map[string]any:
			current = m[segment]
		case map[string]string:
			s, ok := m[segment]
			if !ok {
				return nil
			}
			current = s
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// Truthy mirrors loose truthiness: nil, false, "", and numeric zero are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
