package conditions

import (
	"sort"
	"strings"
)

// Context carries everything a condition clause may probe: the detected
// generator version, the current template snapshot, project properties, and
// environment variables. It is built once per template-processing pass and
// is read-only to rule evaluation.
//
// Substring and feature probes are cached per probe string for the life of
// the context. A Context is owned by a single pass and is not safe for
// concurrent use; independent passes own independent contexts.
type Context struct {
	GeneratorVersion string
	Template         string
	Properties       map[string]string
	Env              map[string]string

	// TemplateName identifies the template being processed in diagnostics
	// and error messages. Optional.
	TemplateName string

	containsCache map[string]bool
	featureCache  map[string]bool
}

// NewContext builds an evaluation context for one template pass.
func NewContext(generatorVersion, template string, properties, env map[string]string) *Context {
	return &Context{
		GeneratorVersion: generatorVersion,
		Template:         template,
		Properties:       properties,
		Env:              env,
		containsCache:    make(map[string]bool),
		featureCache:     make(map[string]bool),
	}
}

// Fingerprint returns a deterministic serialization of everything besides
// the template text that can change condition outcomes: the generator
// version plus sorted properties and environment entries. Two contexts with
// equal fingerprints and equal templates evaluate every clause identically.
func (c *Context) Fingerprint() string {
	var b strings.Builder
	b.WriteString(c.GeneratorVersion)
	writeSorted(&b, "props", c.Properties)
	writeSorted(&b, "env", c.Env)
	return b.String()
}

func writeSorted(b *strings.Builder, label string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteByte('\n')
	b.WriteString(label)
	for _, k := range keys {
		b.WriteByte('\n')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m[k])
	}
}

// TemplateContains reports whether probe occurs in the template snapshot,
// memoized by probe string.
func (c *Context) TemplateContains(probe string) bool {
	if v, ok := c.containsCache[probe]; ok {
		return v
	}
	v := strings.Contains(c.Template, probe)
	c.containsCache[probe] = v
	return v
}

// hasFeature memoizes detector results by feature name.
func (c *Context) hasFeature(name string, det FeatureDetector) bool {
	if v, ok := c.featureCache[name]; ok {
		return v
	}
	v := det.Detect(name, c.Template)
	c.featureCache[name] = v
	return v
}
