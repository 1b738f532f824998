// Package datapath resolves dotted paths against nested data objects and
// expands {path} placeholders inside string templates. Both operations are
// pure and never panic on missing or malformed input.
package datapath

import (
	"fmt"
	"regexp"
	"strconv"
)

// placeholderPattern matches non-overlapping {identifier} placeholders.
// The body may contain dots but not additional braces.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Resolve walks data along the dotted path and returns the value found
// there. The second return reports whether every segment resolved. Missing
// or non-object intermediates short-circuit to (nil, false); a path with no
// dot is a plain key lookup.
func Resolve(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	var current any = data
	start := 0
	for start <= len(path) {
		end := start
		for end < len(path) && path[end] != '.' {
			end++
		}
		segment := path[start:end]

		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		value, exists := obj[segment]
		if !exists {
			return nil, false
		}
		current = value

		if end == len(path) {
			break
		}
		start = end + 1
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

// Interpolate expands every {path} placeholder in template against data.
// Resolved values substitute their string form; unresolved placeholders are
// left literal so callers can detect not-yet-ready output by looking for
// residual braces. It never substitutes an empty string for a miss.
func Interpolate(template string, data map[string]any) string {
	if template == "" {
		return template
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		path := match[1 : len(match)-1]
		value, ok := Resolve(data, path)
		if !ok {
			return match
		}
		return FormatValue(value)
	})
}

// HasPlaceholder reports whether s still contains a {path} placeholder.
func HasPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

// Placeholders returns the distinct placeholder paths found in template, in
// first-appearance order.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		path := match[1]
		if _, exists := seen[path]; exists {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	return paths
}

// FormatValue renders a resolved value as the string a binding should
// display. JSON numbers decode as float64; integral values drop the
// fractional part so a payload of 7 binds as "7", not "7.000000".
func FormatValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
