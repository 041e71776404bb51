// Package semantic resolves named insertion-point concepts and ordered
// candidate lists ("find any of these, first one wins") into concrete edits,
// building on the patch primitives.
//
// Concept names describe template structure by convention, not by parsing:
// each maps to an ordered list of literal anchors observed across generator
// template revisions. The first anchor present in the template wins, so a
// customization keeps working when a template drops or renames one of them.
package semantic

import (
	"strings"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/patch"
)

// Direction says which side of an anchor content lands on.
type Direction int

const (
	After Direction = iota
	Before
)

// Anchor is one candidate location: a literal substring plus a direction.
type Anchor struct {
	Direction Direction
	Text      string
}

// Whole-text concepts bypass anchor search entirely.
const (
	StartOfFile = "start_of_file"
	EndOfFile   = "end_of_file"
)

// insertionPoints maps conventional concept names to ordered anchor
// candidates. Order matters: earlier entries are preferred template idioms,
// later ones are fallbacks for older template revisions.
var insertionPoints = map[string][]Anchor{
	"after_license": {
		{After, "{{>licenseInfo}}"},
		{After, "*/"},
	},
	"end_of_imports": {
		{After, "{{/imports}}"},
		{After, "{{#imports}}import {{import}};\n{{/imports}}"},
		{Before, "{{#models}}"},
	},
	"after_class_declaration": {
		{After, "public class {{classname}} {{#parent}}extends {{{.}}} {{/parent}}{"},
		{After, "public class {{classname}} {"},
		{After, "class {{classname}} {"},
	},
	"before_first_method": {
		{Before, "  public "},
		{Before, "{{#vars}}"},
	},
	"end_of_class": {
		{Before, "{{/model}}"},
		{Before, "\n}"},
	},
}

// KnownConcept reports whether name resolves through the concept table.
// start_of_file and end_of_file are always known.
func KnownConcept(name string) bool {
	if name == StartOfFile || name == EndOfFile {
		return true
	}
	_, ok := insertionPoints[name]
	return ok
}

// ConceptNames returns every recognized concept name, for diagnostics.
func ConceptNames() []string {
	names := []string{StartOfFile, EndOfFile}
	for name := range insertionPoints {
		names = append(names, name)
	}
	return names
}

// Insert places content at the named concept. start_of_file and end_of_file
// prepend/append to the whole text; every other concept walks its anchor
// candidates in order and applies the first one present. Returns the
// (possibly unchanged) text and whether an edit happened.
func Insert(text, concept, content string) (string, bool) {
	switch concept {
	case StartOfFile:
		return content + text, true
	case EndOfFile:
		return text + content, true
	}

	anchors, ok := insertionPoints[concept]
	if !ok {
		return text, false
	}
	return insertAt(text, anchors, content)
}

// Replace substitutes the first anchor candidate of the named concept found
// in text with replace, at a single location.
func Replace(text, concept, replace string) (string, bool) {
	anchors, ok := insertionPoints[concept]
	if !ok {
		return text, false
	}
	for _, a := range anchors {
		if patch.Contains(text, a.Text) {
			return patch.ReplaceFirst(text, a.Text, replace), true
		}
	}
	return text, false
}

// FindAny tries candidates in declared order and replaces the first literal
// substring found in text, at a single location. No candidate found is a
// no-op.
func FindAny(text string, candidates []string, replace string) (string, bool) {
	for _, c := range candidates {
		if patch.Contains(text, c) {
			return patch.ReplaceFirst(text, c, replace), true
		}
	}
	return text, false
}

// FindPattern behaves like FindAny but replaces every occurrence of the
// matched variant, for candidate lists that name the same construct spelled
// differently across template revisions.
func FindPattern(text string, variants []string, replace string) (string, bool) {
	for _, v := range variants {
		if patch.Contains(text, v) {
			return strings.ReplaceAll(text, v, replace), true
		}
	}
	return text, false
}

// FindInsertionPoint walks ordered anchor candidates and inserts content at
// the first one present in text.
func FindInsertionPoint(text string, candidates []Anchor, content string) (string, bool) {
	return insertAt(text, candidates, content)
}

func insertAt(text string, anchors []Anchor, content string) (string, bool) {
	for _, a := range anchors {
		if !patch.Contains(text, a.Text) {
			continue
		}
		if a.Direction == After {
			return patch.InsertAfter(text, a.Text, content), true
		}
		return patch.InsertBefore(text, a.Text, content), true
	}
	return text, false
}
