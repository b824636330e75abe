// Package salvage recovers a JSON value from completion output that was asked
// to be JSON but routinely arrives wrapped in prose, markdown fences, or
// trailing commentary.
package salvage

import (
	"encoding/json"
	"regexp"
	"strings"
)

type Kind int

const (
	ParseError Kind = iota
	Object
	Array
	Text
)

// Value is the tagged result of a recovery attempt. Normalizers branch on
// Kind instead of probing an untyped blob.
type Value struct {
	Kind   Kind
	Object map[string]any
	Array  []any
	Text   string
	// Raw keeps the original text for diagnosis when recovery fails.
	Raw string
}

func (v Value) Recovered() bool {
	return v.Kind != ParseError
}

var braceBlock = regexp.MustCompile(`(?s)\{.*\}`)

// Recover tries, in order: a direct parse of the full text; the substring from
// the first '{' to the last '}'; the first regex brace-block match anywhere.
// First success wins.
func Recover(raw string) Value {
	trimmed := strings.TrimSpace(raw)
	if v, ok := parse(trimmed); ok {
		return v
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		if v, ok := parse(trimmed[start : end+1]); ok {
			return v
		}
	}

	if m := braceBlock.FindString(trimmed); m != "" {
		if v, ok := parse(m); ok {
			return v
		}
	}

	return Value{Kind: ParseError, Raw: raw}
}

func parse(s string) (Value, bool) {
	if s == "" {
		return Value{}, false
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return Value{}, false
	}
	switch t := out.(type) {
	case map[string]any:
		return Value{Kind: Object, Object: t, Raw: s}, true
	case []any:
		return Value{Kind: Array, Array: t, Raw: s}, true
	case string:
		return Value{Kind: Text, Text: t, Raw: s}, true
	default:
		// Bare numbers/booleans are technically JSON but never a widget shape.
		return Value{}, false
	}
}
