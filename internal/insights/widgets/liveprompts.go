package widgets

import (
	"encoding/json"
	"strings"

	"github.com/harborcx/agentdesk-backend/internal/insights/salvage"
)

// LivePrompt is one coaching suggestion shown to the agent mid-call.
type LivePrompt struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

const maxLabelRunes = 40

// The live-prompts widget has the least reliable backend output of any type we
// request, so coercion is an ordered list of independent strategies tried in a
// fixed priority order until one matches. No match returns the parsed value
// unchanged so the caller can inspect what the backend actually sent.
var livePromptStrategies = []func(v salvage.Value) ([]LivePrompt, bool){
	promptsFromArray,
	promptsFromSinglePair,
	promptsFromNamedField,
	promptsFromAnyArrayField,
	promptsFromStringValuedKeys,
}

func normalizeLivePrompts(v salvage.Value) Result {
	for _, strategy := range livePromptStrategies {
		if prompts, ok := strategy(v); ok {
			return Succeeded(LivePrompts, prompts)
		}
	}
	return passthrough(LivePrompts, v)
}

// (a) a direct ordered sequence of {label, value} pairs.
func promptsFromArray(v salvage.Value) ([]LivePrompt, bool) {
	if v.Kind != salvage.Array {
		return nil, false
	}
	return promptsFromAnySlice(v.Array)
}

// (b) a single object that is itself a {label, value} pair.
func promptsFromSinglePair(v salvage.Value) ([]LivePrompt, bool) {
	if v.Kind != salvage.Object {
		return nil, false
	}
	p, ok := pairFromObject(v.Object)
	if !ok {
		return nil, false
	}
	p.Label = truncateLabel(p.Label)
	return []LivePrompt{p}, true
}

// (c) an object with a named array field holding the prompts.
func promptsFromNamedField(v salvage.Value) ([]LivePrompt, bool) {
	if v.Kind != salvage.Object {
		return nil, false
	}
	arr, ok := v.Object["prompts"].([]any)
	if !ok {
		return nil, false
	}
	return promptsFromAnySlice(arr)
}

// (d) an object carrying an array-valued field elsewhere whose first element
// looks like a prompt pair or a plain string.
func promptsFromAnyArrayField(v salvage.Value) ([]LivePrompt, bool) {
	if v.Kind != salvage.Object {
		return nil, false
	}
	for _, key := range orderedKeys(v.Raw) {
		arr, ok := v.Object[key].([]any)
		if !ok || len(arr) == 0 {
			continue
		}
		switch first := arr[0].(type) {
		case map[string]any:
			if _, ok := pairFromObject(first); ok {
				return promptsFromAnySlice(arr)
			}
		case string:
			if strings.TrimSpace(first) != "" {
				return promptsFromAnySlice(arr)
			}
		}
	}
	return nil, false
}

// (e) last resort: an object whose keys, excluding the literal "label" and
// "value", are all string-valued; each key becomes a prompt pair in original
// key order.
func promptsFromStringValuedKeys(v salvage.Value) ([]LivePrompt, bool) {
	if v.Kind != salvage.Object {
		return nil, false
	}
	keys := make([]string, 0, len(v.Object))
	for _, k := range orderedKeys(v.Raw) {
		if k == "label" || k == "value" {
			continue
		}
		if _, ok := v.Object[k].(string); !ok {
			return nil, false
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, false
	}
	out := make([]LivePrompt, 0, len(keys))
	for _, k := range keys {
		out = append(out, LivePrompt{
			Label: truncateLabel(k),
			Value: v.Object[k].(string),
		})
	}
	return out, true
}

func promptsFromAnySlice(arr []any) ([]LivePrompt, bool) {
	out := make([]LivePrompt, 0, len(arr))
	for _, el := range arr {
		switch t := el.(type) {
		case map[string]any:
			p, ok := pairFromObject(t)
			if !ok {
				return nil, false
			}
			p.Label = truncateLabel(p.Label)
			out = append(out, p)
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			out = append(out, LivePrompt{Label: truncateLabel(s), Value: s})
		default:
			return nil, false
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func pairFromObject(obj map[string]any) (LivePrompt, bool) {
	label, lok := obj["label"].(string)
	value, vok := obj["value"].(string)
	if !lok || !vok || strings.TrimSpace(value) == "" {
		return LivePrompt{}, false
	}
	return LivePrompt{Label: label, Value: value}, true
}

func truncateLabel(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxLabelRunes {
		return s
	}
	return string(runes[:maxLabelRunes])
}

// orderedKeys re-scans the raw JSON object for its top-level key order, which
// map parsing discards. Falls back to nothing on malformed input; callers
// only use it on text that already parsed.
func orderedKeys(raw string) []string {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	var keys []string
	depth := 0
	expectKey := true
	for {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				depth++
			case '}', ']':
				if depth == 0 {
					return keys
				}
				depth--
			}
			expectKey = depth == 0
		case string:
			if depth == 0 && expectKey {
				keys = append(keys, t)
				expectKey = false
			} else if depth == 0 {
				expectKey = true
			}
		default:
			if depth == 0 {
				expectKey = true
			}
		}
	}
}
