// Package widgets defines the insight widget registry and the per-type rules
// that coerce completion output into each widget's expected shape.
package widgets

import (
	"github.com/harborcx/agentdesk-backend/internal/insights/salvage"
)

const (
	Summary        = "summary"
	NextBestAction = "nextBestAction"
	LivePrompts    = "livePrompts"
	AccountHealth  = "accountHealth"
	Demographics   = "demographics"
)

// Spec is one registry entry: everything the orchestrator needs to know about
// a widget type lives here, so adding a type is a one-place change.
type Spec struct {
	Name string
	// ForceJSON widgets never surface raw text as a success value.
	ForceJSON bool
	normalize func(v salvage.Value) Result
}

var registry = map[string]Spec{
	Summary:        {Name: Summary, ForceJSON: false},
	NextBestAction: {Name: NextBestAction, ForceJSON: true, normalize: normalizeNextBestAction},
	LivePrompts:    {Name: LivePrompts, ForceJSON: true, normalize: normalizeLivePrompts},
	AccountHealth:  {Name: AccountHealth, ForceJSON: true, normalize: normalizeAccountHealth},
	Demographics:   {Name: Demographics, ForceJSON: true, normalize: normalizeDemographics},
}

func Lookup(widget string) (Spec, bool) {
	s, ok := registry[widget]
	return s, ok
}

// ForceJSON reports whether the widget must yield structured output. Unknown
// widget types are treated as free text.
func ForceJSON(widget string) bool {
	s, ok := registry[widget]
	return ok && s.ForceJSON
}

// FromText wraps a plain-text completion in the widget's single-field shape.
// Only widgets without ForceJSON reach this path.
func FromText(widget, text string) Result {
	switch widget {
	case Summary:
		return Succeeded(widget, map[string]any{"summary": text})
	default:
		return Succeeded(widget, map[string]any{"text": text})
	}
}

// Normalize coerces a salvage result into the widget's expected shape. A
// recovery failure becomes an explicit PARSE_FAILED entry with the raw text
// retained for diagnosis.
func Normalize(widget string, v salvage.Value) Result {
	if !v.Recovered() {
		return ParseFailed(widget, v.Raw)
	}
	s, ok := registry[widget]
	if !ok || s.normalize == nil {
		return passthrough(widget, v)
	}
	return s.normalize(v)
}

func passthrough(widget string, v salvage.Value) Result {
	switch v.Kind {
	case salvage.Object:
		return Succeeded(widget, v.Object)
	case salvage.Array:
		return Succeeded(widget, v.Array)
	default:
		return Succeeded(widget, v.Text)
	}
}

func normalizeNextBestAction(v salvage.Value) Result {
	if v.Kind == salvage.Object {
		obj := v.Object
		if _, ok := obj["action"]; !ok {
			if s, ok := firstStringField(obj, "recommendation", "suggestion", "nextBestAction"); ok {
				obj["action"] = s
			}
		}
		return Succeeded(NextBestAction, obj)
	}
	return passthrough(NextBestAction, v)
}

func normalizeAccountHealth(v salvage.Value) Result {
	if v.Kind != salvage.Object {
		return passthrough(AccountHealth, v)
	}
	obj := v.Object
	if _, ok := obj["reasons"]; !ok {
		obj["reasons"] = []any{}
	}
	if _, ok := obj["bubbles"]; !ok {
		obj["bubbles"] = []any{}
	}
	if _, ok := obj["status"]; !ok {
		obj["status"] = "unknown"
	}
	return Succeeded(AccountHealth, obj)
}

func normalizeDemographics(v salvage.Value) Result {
	// Shape repair happens at the coordinator, which overlays the synthetic
	// record when required fields are missing.
	return passthrough(Demographics, v)
}

func firstStringField(obj map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
