// Package conditions implements the boolean gate that decides whether a
// customization rule applies: version constraints, template content probes,
// feature detection, and project-property/environment checks.
//
// Evaluation never fails a template pass. A clause that cannot be evaluated
// (malformed constraint, undetectable version) is logged and treated as not
// satisfied, so rules written for future generator versions degrade to
// no-ops instead of errors.
package conditions

import (
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Set is a conjunctive predicate: every declared clause must hold for the
// set to pass. An empty or absent set passes vacuously.
type Set struct {
	// GeneratorVersion is a semantic-version constraint expression tested
	// against the context's generator version, e.g. ">= 7.0.0, < 8.0.0".
	GeneratorVersion string `yaml:"generatorVersion,omitempty"`

	// TemplateContains / TemplateNotContains are literal substring probes
	// against the current template snapshot.
	TemplateContains    []string `yaml:"templateContains,omitempty"`
	TemplateNotContains []string `yaml:"templateNotContains,omitempty"`

	// Features are flag names resolved through the feature detector.
	Features []string `yaml:"features,omitempty"`

	// ProjectProperties and Environment entries take two forms: "key"
	// (exists with a non-"false" value) or "key=value" (exact match).
	ProjectProperties []string `yaml:"projectProperties,omitempty"`
	Environment       []string `yaml:"environment,omitempty"`
}

// Empty reports whether no clause is declared.
func (s *Set) Empty() bool {
	return s == nil ||
		(s.GeneratorVersion == "" &&
			len(s.TemplateContains) == 0 &&
			len(s.TemplateNotContains) == 0 &&
			len(s.Features) == 0 &&
			len(s.ProjectProperties) == 0 &&
			len(s.Environment) == 0)
}

// FeatureDetector decides whether a named generator feature is active for a
// given template. Detection mechanics live with the host; the evaluator only
// caches and consults it.
type FeatureDetector interface {
	Detect(feature, template string) bool
}

// MarkerDetector detects features by conventional template markers. A
// feature is active when any of its marker substrings occurs in the
// template; unknown features fall back to probing for the feature name
// itself.
type MarkerDetector struct {
	Markers map[string][]string
}

// DefaultDetector covers the marker conventions of stock generator
// templates.
func DefaultDetector() *MarkerDetector {
	return &MarkerDetector{Markers: map[string][]string{
		"bean-validation": {"{{#useBeanValidation}}", "@Valid"},
		"jackson":         {"{{#jackson}}", "@JsonProperty"},
		"lombok":          {"@Data", "@Builder", "lombok."},
		"serializable":    {"{{#serializableModel}}", "implements Serializable"},
		"discriminator":   {"{{#discriminator}}"},
	}}
}

func (d *MarkerDetector) Detect(feature, template string) bool {
	markers, ok := d.Markers[feature]
	if !ok {
		return strings.Contains(template, feature)
	}
	for _, m := range markers {
		if strings.Contains(template, m) {
			return true
		}
	}
	return false
}

// Evaluator evaluates condition sets against a context.
type Evaluator struct {
	detector FeatureDetector
	logger   *slog.Logger
}

// NewEvaluator wires an evaluator with its feature-detection collaborator.
// A nil detector falls back to DefaultDetector; a nil logger to
// slog.Default.
func NewEvaluator(detector FeatureDetector, logger *slog.Logger) *Evaluator {
	if detector == nil {
		detector = DefaultDetector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{detector: detector, logger: logger}
}

// Evaluate reports whether every declared clause of set holds in ctx.
// A nil or empty set passes.
func (e *Evaluator) Evaluate(set *Set, ctx *Context) bool {
	if set.Empty() {
		return true
	}

	if set.GeneratorVersion != "" && !e.versionSatisfied(set.GeneratorVersion, ctx) {
		return false
	}

	for _, probe := range set.TemplateContains {
		if !ctx.TemplateContains(probe) {
			return false
		}
	}
	for _, probe := range set.TemplateNotContains {
		if ctx.TemplateContains(probe) {
			return false
		}
	}

	for _, feature := range set.Features {
		if !ctx.hasFeature(feature, e.detector) {
			return false
		}
	}

	for _, expr := range set.ProjectProperties {
		if !matchEntry(ctx.Properties, expr) {
			return false
		}
	}
	for _, expr := range set.Environment {
		if !matchEntry(ctx.Env, expr) {
			return false
		}
	}

	return true
}

// versionSatisfied fails closed: an unparseable constraint or an unknown
// generator version means the clause is not satisfied.
func (e *Evaluator) versionSatisfied(expr string, ctx *Context) bool {
	constraint, err := semver.NewConstraint(expr)
	if err != nil {
		e.logger.Warn("malformed version constraint, treating as unsatisfied",
			"constraint", expr, "error", err)
		return false
	}

	version, err := semver.NewVersion(strings.TrimSpace(ctx.GeneratorVersion))
	if err != nil {
		e.logger.Warn("undetectable generator version, treating constraint as unsatisfied",
			"version", ctx.GeneratorVersion, "constraint", expr)
		return false
	}

	return constraint.Check(version)
}

// matchEntry checks "key" (exists with non-"false" value) or "key=value"
// (exact match) against m.
func matchEntry(m map[string]string, expr string) bool {
	if key, want, ok := strings.Cut(expr, "="); ok {
		got, exists := m[key]
		return exists && got == want
	}
	got, exists := m[expr]
	return exists && !strings.EqualFold(got, "false")
}
