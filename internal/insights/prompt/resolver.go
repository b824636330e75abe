// Package prompt turns a widget type plus conversation context into the final
// prompt string sent to the completion backend.
package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// Context is assembled once per widget request and immutable once built.
type Context struct {
	Conversation []domain.Turn
	CustomerID   string
	CustomerData domain.CustomerRecord
	ExtraVars    map[string]any
}

type Resolver struct {
	log    *logger.Logger
	bundle map[string]string
	dir    string
}

// NewResolver loads the optional template bundle once. A missing or broken
// bundle file is a normal case, not an error: builtins cover every widget.
func NewResolver(log *logger.Logger, bundleFile, dir string) *Resolver {
	r := &Resolver{log: log.With("service", "PromptResolver"), dir: strings.TrimSpace(dir)}
	bundleFile = strings.TrimSpace(bundleFile)
	if bundleFile == "" {
		return r
	}
	raw, err := os.ReadFile(bundleFile)
	if err != nil {
		r.log.Debug("template bundle not readable, using builtins", "file", bundleFile, "error", err)
		return r
	}
	var bundle map[string]string
	if err := yaml.Unmarshal(raw, &bundle); err != nil {
		r.log.Warn("template bundle not parseable, using builtins", "file", bundleFile, "error", err)
		return r
	}
	r.bundle = bundle
	return r
}

// Resolve renders the prompt for a widget type. External templates win when
// present; otherwise the builtin for the type; otherwise a generic echo
// template for unrecognized types.
func (r *Resolver) Resolve(widget string, ctx Context) string {
	return render(r.template(widget), ctx)
}

func (r *Resolver) template(widget string) string {
	if t, ok := r.bundle[widget]; ok && strings.TrimSpace(t) != "" {
		return t
	}
	if r.dir != "" {
		raw, err := os.ReadFile(filepath.Join(r.dir, widget+".prompt"))
		if err == nil && strings.TrimSpace(string(raw)) != "" {
			return string(raw)
		}
	}
	if t, ok := builtinTemplates[widget]; ok {
		return t
	}
	return genericTemplate
}

var placeholder = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// render substitutes {{name}} placeholders from the context. Strings render
// verbatim, objects as compact JSON, missing variables as empty string;
// unknown placeholders never fail.
func render(template string, ctx Context) string {
	vars := map[string]any{
		"conversation": domain.Transcript(ctx.Conversation),
		"customerId":   ctx.CustomerID,
		"customerData": ctx.CustomerData,
	}
	for k, v := range ctx.ExtraVars {
		vars[k] = v
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok || v == nil {
			return ""
		}
		switch t := v.(type) {
		case string:
			return t
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return ""
			}
			return string(b)
		}
	})
}
