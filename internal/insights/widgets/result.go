package widgets

import "encoding/json"

type ErrKind string

const (
	ErrNoResponse  ErrKind = "NO_RESPONSE"
	ErrParseFailed ErrKind = "PARSE_FAILED"
)

// ErrorEntry is a widget failure surfaced as a value. The consuming surface
// hides the widget rather than failing the interaction.
type ErrorEntry struct {
	Error  ErrKind `json:"error"`
	Widget string  `json:"widget"`
	Raw    string  `json:"raw,omitempty"`
}

// Result is one widget's normalized outcome: either the widget's expected
// structured shape or an explicit error entry, never both.
type Result struct {
	Widget string
	Data   any
	Err    *ErrorEntry
}

func (r Result) OK() bool {
	return r.Err == nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(r.Err)
	}
	return json.Marshal(r.Data)
}

func Succeeded(widget string, data any) Result {
	return Result{Widget: widget, Data: data}
}

func NoResponse(widget string) Result {
	return Result{Widget: widget, Err: &ErrorEntry{Error: ErrNoResponse, Widget: widget}}
}

func ParseFailed(widget, raw string) Result {
	return Result{Widget: widget, Err: &ErrorEntry{Error: ErrParseFailed, Widget: widget, Raw: raw}}
}
