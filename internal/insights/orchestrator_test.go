package insights

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/insights/completion"
	"github.com/harborcx/agentdesk-backend/internal/insights/prompt"
	"github.com/harborcx/agentdesk-backend/internal/insights/synthetic"
	"github.com/harborcx/agentdesk-backend/internal/insights/widgets"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// fakeCompleter scripts per-prompt results and records the calls it saw.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   []fakeCall
	respond func(promptText string, opts completion.Options) completion.Result
}

type fakeCall struct {
	prompt string
	opts   completion.Options
}

func (f *fakeCompleter) Complete(_ context.Context, promptText string, opts completion.Options) completion.Result {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{prompt: promptText, opts: opts})
	f.mu.Unlock()
	return f.respond(promptText, opts)
}

type fakeCustomers struct{}

func (fakeCustomers) Snapshot(_ context.Context, customerID string) domain.CustomerRecord {
	return synthetic.Demographics(customerID)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestOrchestrator(t *testing.T, fake *fakeCompleter) *Orchestrator {
	t.Helper()
	log := testLogger(t)
	return NewOrchestrator(log, prompt.NewResolver(log, "", ""), fake, fakeCustomers{})
}

func testRequest(widgetTypes ...string) Request {
	return Request{
		CustomerID: "CUST-7001",
		Conversation: []domain.Turn{
			{Role: domain.RoleAgent, Content: "Hi, what can I do for you?"},
			{Role: domain.RoleCustomer, Content: "I was double billed."},
		},
		Widgets: widgetTypes,
	}
}

func TestFetchInsights_OneEntryPerRequestedWidget(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{Text: `{"action": "refund"}`, OK: true}
	}}
	o := newTestOrchestrator(t, fake)

	requested := []string{widgets.Summary, widgets.NextBestAction, widgets.AccountHealth}
	out := o.FetchInsights(context.Background(), testRequest(requested...))
	if len(out) != len(requested) {
		t.Fatalf("expected %d entries, got %d", len(requested), len(out))
	}
	for _, w := range requested {
		if _, ok := out[w]; !ok {
			t.Fatalf("missing entry for %s", w)
		}
	}
}

func TestFetchInsights_DuplicatesCollapse(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{Text: "fine", OK: true}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Summary, widgets.Summary, " summary "))
	if len(out) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out))
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 backend call, got %d", len(fake.calls))
	}
}

func TestFetchInsights_FailureIsolatedPerWidget(t *testing.T) {
	fake := &fakeCompleter{respond: func(promptText string, _ completion.Options) completion.Result {
		if strings.Contains(promptText, "Summarize") {
			return completion.Result{}
		}
		return completion.Result{Text: `{"action": "refund"}`, OK: true}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Summary, widgets.NextBestAction))
	if out[widgets.Summary].OK() {
		t.Fatalf("summary should carry NO_RESPONSE")
	}
	if out[widgets.Summary].Err.Error != widgets.ErrNoResponse {
		t.Fatalf("unexpected error kind: %q", out[widgets.Summary].Err.Error)
	}
	if !out[widgets.NextBestAction].OK() {
		t.Fatalf("next best action should be unaffected")
	}
}

func TestFetchInsights_SummaryWrapsPlainText(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{Text: "  Customer was double billed; refund agreed.  ", OK: true}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Summary))
	obj := out[widgets.Summary].Data.(map[string]any)
	if obj["summary"] != "Customer was double billed; refund agreed." {
		t.Fatalf("unexpected summary: %#v", obj)
	}
}

func TestFetchInsights_ReinforcedPassAfterJSONFailure(t *testing.T) {
	var attempts []completion.Options
	fake := &fakeCompleter{}
	fake.respond = func(promptText string, opts completion.Options) completion.Result {
		attempts = append(attempts, opts)
		if len(attempts) == 1 {
			return completion.Result{}
		}
		if !strings.Contains(promptText, "Return ONLY valid JSON") {
			return completion.Result{}
		}
		return completion.Result{Text: `{"action": "escalate"}`, OK: true}
	}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.NextBestAction))
	if !out[widgets.NextBestAction].OK() {
		t.Fatalf("reinforced pass should have recovered: %+v", out[widgets.NextBestAction].Err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected initial + reinforced call, got %d", len(attempts))
	}
	if attempts[1].Temperature >= attempts[0].Temperature {
		t.Fatalf("reinforced pass must sample colder: %v vs %v", attempts[1].Temperature, attempts[0].Temperature)
	}
	if attempts[1].Retry.MaxAttempts <= attempts[0].Retry.MaxAttempts {
		t.Fatalf("reinforced pass must carry the larger retry budget")
	}
}

func TestFetchInsights_NoReinforcedPassForFreeText(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Summary))
	if out[widgets.Summary].OK() {
		t.Fatalf("expected NO_RESPONSE")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("free-text widgets get no reinforced pass, got %d calls", len(fake.calls))
	}
}

func TestFetchInsights_DemographicsReplacedWhenAbsent(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Demographics))
	res := out[widgets.Demographics]
	if !res.OK() {
		t.Fatalf("demographics must fall back to the synthetic record")
	}
	rec, ok := res.Data.(domain.CustomerRecord)
	if !ok {
		t.Fatalf("expected synthetic record, got %#v", res.Data)
	}
	if rec != synthetic.Demographics("CUST-7001") {
		t.Fatalf("synthetic record must be deterministic for the customer id")
	}
}

func TestFetchInsights_DemographicsBlankFieldsOverlaid(t *testing.T) {
	fake := &fakeCompleter{respond: func(string, completion.Options) completion.Result {
		return completion.Result{Text: `{"name": "Rosa Marin", "gender": "", "city": " "}`, OK: true}
	}}
	o := newTestOrchestrator(t, fake)

	out := o.FetchInsights(context.Background(), testRequest(widgets.Demographics))
	obj := out[widgets.Demographics].Data.(map[string]any)
	if obj["name"] != "Rosa Marin" {
		t.Fatalf("stated fields must survive: %#v", obj)
	}
	syn := synthetic.Demographics("CUST-7001")
	if obj["gender"] != syn.Gender || obj["city"] != syn.City {
		t.Fatalf("blank fields must be overlaid: %#v", obj)
	}
	if obj["region"] != syn.Region || obj["postcode"] != syn.Postcode {
		t.Fatalf("missing fields must be overlaid: %#v", obj)
	}
}
