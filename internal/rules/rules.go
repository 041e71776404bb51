// Package rules defines the customization rule document: its typed model,
// strict structural validation, and parsing. One document describes the
// insertions, replacements, and smart variants applied to one template.
package rules

import (
	"fmt"
	"strings"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/conditions"
)

// MaxFallbackDepth bounds fallback-chain traversal. The document format
// cannot express a cycle directly, but programmatic construction can, and a
// deep hand-written chain is a rule-authoring bug either way.
const MaxFallbackDepth = 16

// Document is a parsed, validated customization rule document. It is
// immutable after Parse; the retained raw source provides a stable textual
// serialization for cache fingerprinting.
type Document struct {
	Metadata          map[string]string  `yaml:"metadata,omitempty"`
	Conditions        *conditions.Set    `yaml:"conditions,omitempty"`
	Insertions        []Insertion        `yaml:"insertions,omitempty"`
	Replacements      []Replacement      `yaml:"replacements,omitempty"`
	SmartReplacements []SmartReplacement `yaml:"smartReplacements,omitempty"`
	SmartInsertions   []SmartInsertion   `yaml:"smartInsertions,omitempty"`
	Partials          map[string]string  `yaml:"partials,omitempty"`

	source string
	raw    string
}

// Source names where the document came from (a file path or logical name).
func (d *Document) Source() string { return d.source }

// Raw returns the original document text.
func (d *Document) Raw() string { return d.raw }

// Empty reports whether the document declares no rules at all.
func (d *Document) Empty() bool {
	return d == nil ||
		(len(d.Insertions) == 0 &&
			len(d.Replacements) == 0 &&
			len(d.SmartReplacements) == 0 &&
			len(d.SmartInsertions) == 0)
}

// Insertion places content relative to an anchor. Exactly one of After,
// Before, At is set. At accepts only "start" or "end" (case-insensitive).
type Insertion struct {
	After      string          `yaml:"after,omitempty"`
	Before     string          `yaml:"before,omitempty"`
	At         string          `yaml:"at,omitempty"`
	Content    string          `yaml:"content"`
	Conditions *conditions.Set `yaml:"conditions,omitempty"`
	Fallback   *Insertion      `yaml:"fallback,omitempty"`
}

// AtStart reports whether the insertion targets the start of the template.
func (i *Insertion) AtStart() bool { return strings.EqualFold(i.At, "start") }

// AtEnd reports whether the insertion targets the end of the template.
func (i *Insertion) AtEnd() bool { return strings.EqualFold(i.At, "end") }

// Replacement substitutes find with replace, literally by default or as a
// regular expression when Type is "regex".
type Replacement struct {
	Find       string          `yaml:"find"`
	Replace    string          `yaml:"replace"`
	Type       string          `yaml:"type,omitempty"`
	Conditions *conditions.Set `yaml:"conditions,omitempty"`
	Fallback   *Replacement    `yaml:"fallback,omitempty"`
}

// IsRegex reports whether the replacement is pattern-based.
func (r *Replacement) IsRegex() bool { return r.Type == TypeRegex }

// Replacement type values.
const (
	TypeString = "string"
	TypeRegex  = "regex"
)

// SmartReplacement resolves its target through exactly one selector:
// FindAny (ordered literal candidates, first found wins), Semantic (a named
// concept), or FindPattern (ordered literal variants, matched variant
// replaced everywhere).
type SmartReplacement struct {
	FindAny     []string `yaml:"findAny,omitempty"`
	Semantic    string   `yaml:"semantic,omitempty"`
	FindPattern []string `yaml:"findPattern,omitempty"`
	Replace     string   `yaml:"replace"`
}

// InsertionPoint is one candidate anchor for a SmartInsertion: exactly one
// of After or Before is set.
type InsertionPoint struct {
	After  string `yaml:"after,omitempty"`
	Before string `yaml:"before,omitempty"`
}

// SmartInsertion places content at a named insertion-point concept or at
// the first of an ordered candidate list found in the template. The fallback
// insertion applies when no insertion point resolves.
type SmartInsertion struct {
	Semantic           string           `yaml:"semantic,omitempty"`
	FindInsertionPoint []InsertionPoint `yaml:"findInsertionPoint,omitempty"`
	Content            string           `yaml:"content"`
	Conditions         *conditions.Set  `yaml:"conditions,omitempty"`
	Fallback           *Insertion       `yaml:"fallback,omitempty"`
}

// ConfigurationError reports a structurally invalid rule document. It is
// fatal for that one document and carries the offending key or field so the
// author can fix it without digging.
type ConfigurationError struct {
	Source     string
	Field      string
	Line       int
	Message    string
	Suggestion string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid customization %s", e.Source)
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, ". Suggestion: %s", e.Suggestion)
	}
	return b.String()
}
