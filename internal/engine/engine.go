// Package engine applies customization rule documents to template text.
//
// The engine is pure apart from its injected result cache: given the same
// template, document, and context it always produces the same output, which
// makes results safe to memoize by content hash and safe to compute from
// any goroutine with independently-owned documents and contexts.
package engine

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/conditions"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/hashcache"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/patch"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/rules"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/semantic"
)

// CustomizationError wraps any failure while applying rules to one
// template. It is fatal for that template's pass only; other templates are
// unaffected.
type CustomizationError struct {
	Template string
	Err      error
}

func (e *CustomizationError) Error() string {
	return fmt.Sprintf("customizing template %s: %v", e.Template, e.Err)
}

func (e *CustomizationError) Unwrap() error {
	return e.Err
}

// partialMarker matches @@name@@ references inside content strings.
var partialMarker = regexp.MustCompile(`@@([A-Za-z][A-Za-z0-9_-]*)@@`)

// Engine parses rule documents and applies them to templates, memoizing
// results in a shared content-hash cache.
type Engine struct {
	evaluator *conditions.Evaluator
	cache     *hashcache.Cache
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator replaces the condition evaluator.
func WithEvaluator(e *conditions.Evaluator) Option {
	return func(eng *Engine) { eng.evaluator = e }
}

// WithCache injects a shared result cache, letting several engines (or
// several pipelines) share memoized results.
func WithCache(c *hashcache.Cache) Option {
	return func(eng *Engine) { eng.cache = c }
}

// WithLogger sets the structured logger for skipped-rule diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// New creates an engine with sensible defaults: a fresh cache, the default
// feature detector, and slog.Default.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = slog.Default()
	}
	if eng.evaluator == nil {
		eng.evaluator = conditions.NewEvaluator(nil, eng.logger)
	}
	if eng.cache == nil {
		eng.cache = hashcache.New()
	}
	return eng
}

// Parse validates and binds a rule document.
func (e *Engine) Parse(source string, data []byte) (*rules.Document, error) {
	return rules.Parse(source, data)
}

// Apply runs doc's rule pipeline over template and returns the transformed
// text. A nil doc or a failed global condition set returns the template
// unchanged; there is no partial application. Results are memoized by a
// SHA-256 digest over the template, the document's raw source, the
// context's template snapshot, and the context fingerprint.
func (e *Engine) Apply(template string, doc *rules.Document, ctx *conditions.Context) (string, error) {
	if doc == nil {
		return template, nil
	}
	if ctx == nil {
		ctx = conditions.NewContext("", template, nil, nil)
	}

	key := hashcache.Digest(template, doc.Raw(), ctx.Template, ctx.Fingerprint())
	result, err := e.cache.GetOrCompute(key, func() (string, error) {
		return e.apply(template, doc, ctx)
	})
	if err != nil {
		return "", &CustomizationError{Template: e.templateName(doc, ctx), Err: err}
	}
	return result, nil
}

// CacheSize returns the number of memoized results.
func (e *Engine) CacheSize() int {
	return e.cache.Size()
}

// ClearCache drops all memoized results.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) templateName(doc *rules.Document, ctx *conditions.Context) string {
	if ctx != nil && ctx.TemplateName != "" {
		return ctx.TemplateName
	}
	return doc.Source()
}

// apply runs the fixed-order pipeline: replacements settle existing
// structure first so later insertion anchors are not invalidated, and
// insertions run last so newly-added anchors never shadow replacement
// targets.
func (e *Engine) apply(template string, doc *rules.Document, ctx *conditions.Context) (string, error) {
	if !e.evaluator.Evaluate(doc.Conditions, ctx) {
		e.logger.Debug("global conditions not met, skipping document",
			"source", doc.Source())
		return template, nil
	}

	text := template
	var err error

	for i := range doc.Replacements {
		text, err = e.applyReplacement(text, &doc.Replacements[i], doc, ctx, 0)
		if err != nil {
			return "", err
		}
	}
	for i := range doc.SmartReplacements {
		text = e.applySmartReplacement(text, &doc.SmartReplacements[i], doc)
	}
	for i := range doc.Insertions {
		text = e.applyInsertion(text, &doc.Insertions[i], doc, ctx, 0)
	}
	for i := range doc.SmartInsertions {
		text = e.applySmartInsertion(text, &doc.SmartInsertions[i], doc, ctx)
	}

	return text, nil
}

func (e *Engine) applyReplacement(text string, r *rules.Replacement, doc *rules.Document, ctx *conditions.Context, depth int) (string, error) {
	if depth > rules.MaxFallbackDepth {
		e.logger.Warn("replacement fallback chain too deep, skipping",
			"source", doc.Source(), "find", r.Find)
		return text, nil
	}

	if !e.evaluator.Evaluate(r.Conditions, ctx) {
		if r.Fallback != nil {
			return e.applyReplacement(text, r.Fallback, doc, ctx, depth+1)
		}
		e.logger.Debug("replacement conditions not met, skipping",
			"source", doc.Source(), "find", r.Find)
		return text, nil
	}

	replace := e.expandPartials(r.Replace, doc)
	if r.IsRegex() {
		return patch.ReplaceRegex(text, r.Find, replace)
	}
	return patch.ReplaceString(text, r.Find, replace), nil
}

func (e *Engine) applySmartReplacement(text string, r *rules.SmartReplacement, doc *rules.Document) string {
	replace := e.expandPartials(r.Replace, doc)

	var changed bool
	switch {
	case len(r.FindAny) > 0:
		text, changed = semantic.FindAny(text, r.FindAny, replace)
	case r.Semantic != "":
		text, changed = semantic.Replace(text, r.Semantic, replace)
	case len(r.FindPattern) > 0:
		text, changed = semantic.FindPattern(text, r.FindPattern, replace)
	}
	if !changed {
		e.logger.Debug("smart replacement found no target, skipping",
			"source", doc.Source(), "semantic", r.Semantic)
	}
	return text
}

func (e *Engine) applyInsertion(text string, ins *rules.Insertion, doc *rules.Document, ctx *conditions.Context, depth int) string {
	if depth > rules.MaxFallbackDepth {
		e.logger.Warn("insertion fallback chain too deep, skipping",
			"source", doc.Source())
		return text
	}

	if !e.evaluator.Evaluate(ins.Conditions, ctx) {
		if ins.Fallback != nil {
			return e.applyInsertion(text, ins.Fallback, doc, ctx, depth+1)
		}
		e.logger.Debug("insertion conditions not met, skipping", "source", doc.Source())
		return text
	}

	content := e.expandPartials(ins.Content, doc)
	switch {
	case ins.AtStart():
		return content + text
	case ins.AtEnd():
		return text + content
	case ins.After != "":
		return patch.InsertAfter(text, ins.After, content)
	case ins.Before != "":
		return patch.InsertBefore(text, ins.Before, content)
	}
	return text
}

// applySmartInsertion falls back to the plain insertion when conditions
// fail or when no insertion point resolves in the template.
func (e *Engine) applySmartInsertion(text string, ins *rules.SmartInsertion, doc *rules.Document, ctx *conditions.Context) string {
	if !e.evaluator.Evaluate(ins.Conditions, ctx) {
		if ins.Fallback != nil {
			return e.applyInsertion(text, ins.Fallback, doc, ctx, 1)
		}
		return text
	}

	content := e.expandPartials(ins.Content, doc)

	var changed bool
	result := text
	switch {
	case ins.Semantic != "":
		result, changed = semantic.Insert(text, ins.Semantic, content)
	case len(ins.FindInsertionPoint) > 0:
		candidates := make([]semantic.Anchor, 0, len(ins.FindInsertionPoint))
		for _, p := range ins.FindInsertionPoint {
			if p.After != "" {
				candidates = append(candidates, semantic.Anchor{Direction: semantic.After, Text: p.After})
			} else {
				candidates = append(candidates, semantic.Anchor{Direction: semantic.Before, Text: p.Before})
			}
		}
		result, changed = semantic.FindInsertionPoint(text, candidates, content)
	}

	if !changed {
		if ins.Fallback != nil {
			return e.applyInsertion(text, ins.Fallback, doc, ctx, 1)
		}
		e.logger.Debug("smart insertion found no insertion point, skipping",
			"source", doc.Source(), "semantic", ins.Semantic)
	}
	return result
}

// expandPartials substitutes @@name@@ markers with the document's partials
// in a single pass. Markers naming no known partial are left untouched, and
// expanded text is not rescanned, so partials cannot nest.
func (e *Engine) expandPartials(content string, doc *rules.Document) string {
	if len(doc.Partials) == 0 {
		return content
	}
	return partialMarker.ReplaceAllStringFunc(content, func(marker string) string {
		name := marker[2 : len(marker)-2]
		if snippet, ok := doc.Partials[name]; ok {
			return snippet
		}
		return marker
	})
}
