package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertWholeFileConcepts(t *testing.T) {
	out, ok := Insert("body", StartOfFile, "header\n")
	assert.True(t, ok)
	assert.Equal(t, "header\nbody", out)

	out, ok = Insert("body", EndOfFile, "\nfooter")
	assert.True(t, ok)
	assert.Equal(t, "body\nfooter", out)
}

func TestInsertAfterLicense(t *testing.T) {
	template := "/*\n * License\n */\npackage {{package}};\n"

	out, ok := Insert(template, "after_license", "\n// customized")
	assert.True(t, ok)
	assert.Equal(t, "/*\n * License\n */\n// customized\npackage {{package}};\n", out)
}

func TestInsertFirstAnchorWins(t *testing.T) {
	// Template carries both the preferred and the fallback anchor; the
	// preferred one must be used.
	template := "{{>licenseInfo}}\n/* x */\n"

	out, ok := Insert(template, "after_license", "!")
	assert.True(t, ok)
	assert.Equal(t, "{{>licenseInfo}}!\n/* x */\n", out)
}

func TestInsertUnknownConcept(t *testing.T) {
	out, ok := Insert("abc", "no_such_concept", "x")
	assert.False(t, ok)
	assert.Equal(t, "abc", out)
}

func TestInsertNoAnchorPresent(t *testing.T) {
	out, ok := Insert("plain text", "after_class_declaration", "x")
	assert.False(t, ok)
	assert.Equal(t, "plain text", out)
}

func TestKnownConcept(t *testing.T) {
	assert.True(t, KnownConcept(StartOfFile))
	assert.True(t, KnownConcept(EndOfFile))
	assert.True(t, KnownConcept("end_of_imports"))
	assert.False(t, KnownConcept("made_up"))
}

func TestFindAny(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		candidates []string
		replace    string
		expected   string
		changed    bool
	}{
		{
			name:       "first declared candidate present wins",
			text:       "Beta text",
			candidates: []string{"Alpha", "Beta"},
			replace:    "Z",
			expected:   "Z text",
			changed:    true,
		},
		{
			name:       "declaration order beats position in text",
			text:       "Beta Alpha",
			candidates: []string{"Alpha", "Beta"},
			replace:    "Z",
			expected:   "Beta Z",
			changed:    true,
		},
		{
			name:       "single location only",
			text:       "Beta Beta",
			candidates: []string{"Beta"},
			replace:    "Z",
			expected:   "Z Beta",
			changed:    true,
		},
		{
			name:       "no candidate found is a no-op",
			text:       "Gamma",
			candidates: []string{"Alpha", "Beta"},
			replace:    "Z",
			expected:   "Gamma",
			changed:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := FindAny(tt.text, tt.candidates, tt.replace)
			assert.Equal(t, tt.expected, out)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestFindPatternReplacesAllOfMatchedVariant(t *testing.T) {
	out, changed := FindPattern("a.b a.b a-b", []string{"a.b", "a-b"}, "X")
	assert.True(t, changed)
	assert.Equal(t, "X X a-b", out)
}

func TestFindInsertionPoint(t *testing.T) {
	candidates := []Anchor{
		{After, "{{/imports}}"},
		{Before, "public class"},
	}

	t.Run("first candidate present", func(t *testing.T) {
		out, ok := FindInsertionPoint("{{/imports}}\npublic class A {}", candidates, "X")
		assert.True(t, ok)
		assert.Equal(t, "{{/imports}}X\npublic class A {}", out)
	})

	t.Run("falls through to later candidate", func(t *testing.T) {
		out, ok := FindInsertionPoint("public class A {}", candidates, "X\n")
		assert.True(t, ok)
		assert.Equal(t, "X\npublic class A {}", out)
	})

	t.Run("none present", func(t *testing.T) {
		out, ok := FindInsertionPoint("abc", candidates, "X")
		assert.False(t, ok)
		assert.Equal(t, "abc", out)
	})
}
