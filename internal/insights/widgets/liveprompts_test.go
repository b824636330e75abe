package widgets

import (
	"strings"
	"testing"

	"github.com/harborcx/agentdesk-backend/internal/insights/salvage"
)

func prompts(t *testing.T, res Result) []LivePrompt {
	t.Helper()
	out, ok := res.Data.([]LivePrompt)
	if !ok {
		t.Fatalf("expected []LivePrompt, got %#v", res.Data)
	}
	return out
}

func TestNormalizeLivePrompts_ArrayOfPairs(t *testing.T) {
	v := salvage.Recover(`[{"label": "Empathy", "value": "Acknowledge the delay"}, {"label": "Offer", "value": "Mention the credit"}]`)
	out := prompts(t, normalizeLivePrompts(v))
	if len(out) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(out))
	}
	if out[0].Label != "Empathy" || out[1].Value != "Mention the credit" {
		t.Fatalf("unexpected prompts: %#v", out)
	}
}

func TestNormalizeLivePrompts_SinglePairObject(t *testing.T) {
	v := salvage.Recover(`{"label": "Retention", "value": "Offer the loyalty plan"}`)
	out := prompts(t, normalizeLivePrompts(v))
	if len(out) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(out))
	}
	if out[0].Label != "Retention" {
		t.Fatalf("unexpected label: %q", out[0].Label)
	}
}

func TestNormalizeLivePrompts_NamedPromptsField(t *testing.T) {
	v := salvage.Recover(`{"prompts": ["Ask about the outage", "Confirm the address"]}`)
	out := prompts(t, normalizeLivePrompts(v))
	if len(out) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(out))
	}
	if out[0].Value != "Ask about the outage" {
		t.Fatalf("unexpected value: %q", out[0].Value)
	}
}

func TestNormalizeLivePrompts_AnyArrayField(t *testing.T) {
	v := salvage.Recover(`{"note": "x", "suggestions": [{"label": "a", "value": "b"}]}`)
	out := prompts(t, normalizeLivePrompts(v))
	if len(out) != 1 || out[0].Value != "b" {
		t.Fatalf("unexpected prompts: %#v", out)
	}
}

func TestNormalizeLivePrompts_StringValuedKeysPreserveOrder(t *testing.T) {
	v := salvage.Recover(`{"tip1": "Slow down", "tip2": "Recap the fix", "tip3": "Close warmly"}`)
	out := prompts(t, normalizeLivePrompts(v))
	if len(out) != 3 {
		t.Fatalf("expected 3 prompts, got %d", len(out))
	}
	wantLabels := []string{"tip1", "tip2", "tip3"}
	for i, w := range wantLabels {
		if out[i].Label != w {
			t.Fatalf("key order lost at %d: got %q want %q", i, out[i].Label, w)
		}
	}
	if out[1].Value != "Recap the fix" {
		t.Fatalf("unexpected value: %q", out[1].Value)
	}
}

func TestNormalizeLivePrompts_MixedValueTypesFallThrough(t *testing.T) {
	// A non-string value disqualifies the string-valued-keys strategy; the
	// object passes through unchanged.
	v := salvage.Recover(`{"tip1": "a", "count": 3}`)
	res := normalizeLivePrompts(v)
	if !res.OK() {
		t.Fatalf("passthrough should still be a success value")
	}
	if _, ok := res.Data.([]LivePrompt); ok {
		t.Fatalf("expected passthrough, got coerced prompts")
	}
}

func TestNormalizeLivePrompts_LabelTruncation(t *testing.T) {
	long := strings.Repeat("x", 60)
	v := salvage.Recover(`{"prompts": ["` + long + `"]}`)
	out := prompts(t, normalizeLivePrompts(v))
	if got := len([]rune(out[0].Label)); got != 40 {
		t.Fatalf("expected 40-rune label, got %d", got)
	}
	if out[0].Value != long {
		t.Fatalf("value must stay untruncated")
	}
}

func TestOrderedKeys_TopLevelOnly(t *testing.T) {
	keys := orderedKeys(`{"b": {"inner": 1}, "a": [1, 2], "c": "x"}`)
	want := []string{"b", "a", "c"}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v want %v", keys, want)
		}
	}
}
