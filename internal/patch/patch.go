// Package patch provides the low-level text transformation primitives used
// by the customization engine: anchor-relative insertion and literal/regex
// replacement over opaque template text.
//
// Anchors that cannot be found are never errors. Templates evolve between
// generator releases, and a customization written against one revision must
// degrade to a no-op against the next rather than break the whole pass.
package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternError reports a regular expression that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// InsertAfter inserts content immediately after the first literal occurrence
// of anchor. If anchor is absent, text is returned unchanged.
func InsertAfter(text, anchor, content string) string {
	idx := strings.Index(text, anchor)
	if idx < 0 {
		return text
	}
	pos := idx + len(anchor)
	return text[:pos] + content + text[pos:]
}

// InsertBefore inserts content immediately before the first literal
// occurrence of anchor. If anchor is absent, text is returned unchanged.
func InsertBefore(text, anchor, content string) string {
	idx := strings.Index(text, anchor)
	if idx < 0 {
		return text
	}
	return text[:idx] + content + text[idx:]
}

// ReplaceString replaces every literal occurrence of find with replace.
func ReplaceString(text, find, replace string) string {
	return strings.ReplaceAll(text, find, replace)
}

// ReplaceRegex compiles pattern and, if it matches anywhere in text,
// replaces every match. If the pattern compiles but never matches, text is
// returned unchanged.
//
// Existence is tested once but replacement applies to every match. Callers
// rely on this replace-all behavior; do not narrow it to the first match.
func ReplaceRegex(text, pattern, replace string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", &PatternError{Pattern: pattern, Err: err}
	}
	if !re.MatchString(text) {
		return text, nil
	}
	return re.ReplaceAllString(text, replace), nil
}

// ReplaceFirst replaces only the first literal occurrence of find.
// Used by the smart resolver, which targets a single location.
func ReplaceFirst(text, find, replace string) string {
	idx := strings.Index(text, find)
	if idx < 0 {
		return text
	}
	return text[:idx] + replace + text[idx+len(find):]
}

// Contains reports whether anchor occurs literally in text.
func Contains(text, anchor string) bool {
	return strings.Contains(text, anchor)
}
