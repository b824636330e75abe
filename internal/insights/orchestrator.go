// Package insights drives the per-widget fan-out: prompt rendering, the
// completion call, salvage, normalization, and deterministic post-processing.
package insights

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/insights/completion"
	"github.com/harborcx/agentdesk-backend/internal/insights/prompt"
	"github.com/harborcx/agentdesk-backend/internal/insights/salvage"
	"github.com/harborcx/agentdesk-backend/internal/insights/synthetic"
	"github.com/harborcx/agentdesk-backend/internal/insights/widgets"
	"github.com/harborcx/agentdesk-backend/internal/observability"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// Request is one orchestration call. Conversation and customer data are
// read-only inputs; nothing here survives the call.
type Request struct {
	CustomerID   string
	Conversation []domain.Turn
	Widgets      []string
	ExtraVars    map[string]map[string]any
}

// ResultMap carries exactly one entry per requested widget type.
type ResultMap map[string]widgets.Result

// Completer is satisfied by *completion.Client; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, promptText string, opts completion.Options) completion.Result
}

// CustomerSource supplies the read-only customer snapshot built once per call.
type CustomerSource interface {
	Snapshot(ctx context.Context, customerID string) domain.CustomerRecord
}

type Orchestrator struct {
	log       *logger.Logger
	prompts   *prompt.Resolver
	client    Completer
	customers CustomerSource
}

func NewOrchestrator(log *logger.Logger, prompts *prompt.Resolver, client Completer, customers CustomerSource) *Orchestrator {
	return &Orchestrator{
		log:       log.With("service", "InsightOrchestrator"),
		prompts:   prompts,
		client:    client,
		customers: customers,
	}
}

const (
	defaultTemperature    = 0.4
	reinforcedTemperature = 0.1
	jsonOnlySuffix        = "\n\nReturn ONLY valid JSON. Do not include markdown, code fences, or commentary."
)

// FetchInsights resolves every requested widget concurrently and returns once
// all of them have settled. A failure in one widget's pipeline never affects
// another's; the map is always complete.
func (o *Orchestrator) FetchInsights(ctx context.Context, req Request) ResultMap {
	requested := dedupe(req.Widgets)
	snapshot := o.customers.Snapshot(ctx, req.CustomerID)

	results := make([]widgets.Result, len(requested))
	g := new(errgroup.Group)
	for i, w := range requested {
		g.Go(func() error {
			results[i] = o.fetchOne(ctx, w, req, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	out := make(ResultMap, len(requested))
	for i, w := range requested {
		out[w] = results[i]
	}

	o.repairDemographics(req.CustomerID, out)
	return out
}

func (o *Orchestrator) fetchOne(ctx context.Context, widget string, req Request, snapshot domain.CustomerRecord) widgets.Result {
	forceJSON := widgets.ForceJSON(widget)
	promptText := o.prompts.Resolve(widget, prompt.Context{
		Conversation: req.Conversation,
		CustomerID:   req.CustomerID,
		CustomerData: snapshot,
		ExtraVars:    req.ExtraVars[widget],
	})

	res := o.client.Complete(ctx, promptText, completion.Options{
		Temperature: defaultTemperature,
		ForceJSON:   forceJSON,
		Retry:       completion.DefaultRetry(),
	})
	if !res.OK && forceJSON {
		// One reinforced pass: stricter wording, colder sampling, more
		// attempts. Strictly after the initial outcome, never in parallel.
		res = o.client.Complete(ctx, promptText+jsonOnlySuffix, completion.Options{
			Temperature: reinforcedTemperature,
			ForceJSON:   true,
			Retry:       completion.ReinforcedRetry(),
		})
	}

	result := o.normalize(widget, forceJSON, res)
	observability.Current().ObserveWidgetResult(widget, outcomeLabel(result))
	return result
}

func (o *Orchestrator) normalize(widget string, forceJSON bool, res completion.Result) widgets.Result {
	if !res.OK {
		return widgets.NoResponse(widget)
	}
	if !forceJSON {
		return widgets.FromText(widget, strings.TrimSpace(res.Text))
	}
	return widgets.Normalize(widget, salvage.Recover(res.Text))
}

// repairDemographics overlays or replaces the demographics widget with the
// deterministic synthetic record when the backend result is unusable. Never
// calls the backend.
func (o *Orchestrator) repairDemographics(customerID string, out ResultMap) {
	res, ok := out[widgets.Demographics]
	if !ok {
		return
	}
	syn := synthetic.Demographics(customerID)
	if !res.OK() {
		out[widgets.Demographics] = widgets.Succeeded(widgets.Demographics, syn)
		return
	}
	obj, isObj := res.Data.(map[string]any)
	if !isObj {
		out[widgets.Demographics] = widgets.Succeeded(widgets.Demographics, syn)
		return
	}
	overlayField(obj, "name", syn.Name)
	overlayField(obj, "gender", syn.Gender)
	overlayField(obj, "city", syn.City)
	overlayField(obj, "region", syn.Region)
	overlayField(obj, "postcode", syn.Postcode)
	out[widgets.Demographics] = widgets.Succeeded(widgets.Demographics, obj)
}

func overlayField(obj map[string]any, key, fallback string) {
	if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
		return
	}
	obj[key] = fallback
}

func outcomeLabel(r widgets.Result) string {
	if r.OK() {
		return "ok"
	}
	return strings.ToLower(string(r.Err.Error))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, w := range in {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
