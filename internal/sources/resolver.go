package sources

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/conditions"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/engine"
	"github.com/ryansmith4/openapi-modelgen-sub000/internal/rules"
)

// Options describes everything the resolver consumes from the host: the
// downstream generator identity, detected versions, and the content of each
// source category.
type Options struct {
	// Generator is the downstream generator name, e.g. "spring".
	Generator string
	// ToolVersion is the detected host-tool version.
	ToolVersion string
	// GeneratorVersion is the detected underlying-codegen version.
	GeneratorVersion string

	// Properties and Env feed condition evaluation.
	Properties map[string]string
	Env        map[string]string

	// PluginCustomizations maps template names to rule document sources
	// shipped with the tool itself.
	PluginCustomizations map[string]string

	// Libraries are already-extracted library artifacts, in declaration
	// order. Later libraries win over earlier ones within a category.
	Libraries []*Library

	// UserTemplateDir and UserCustomizationDir are project-local override
	// directories. Empty means the category is unavailable.
	UserTemplateDir      string
	UserCustomizationDir string
}

// Resolver discovers available source categories and merges their
// customizations in precedence order, lowest first, so higher-precedence
// sources win on overlapping edits.
type Resolver struct {
	engine *engine.Engine
	logger *slog.Logger
	opts   Options

	// compatible holds manifest-filtered libraries.
	compatible []*Library

	// parsed memoizes rule documents by source identifier; a document is
	// parsed once per source file for the resolver's lifetime.
	parsed sync.Map // string -> *rules.Document
}

// NewResolver filters libraries through their compatibility manifests and
// prepares a resolver. Incompatible libraries are skipped with a logged
// reason, never an error.
func NewResolver(eng *engine.Engine, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if eng == nil {
		eng = engine.New(engine.WithLogger(logger))
	}

	r := &Resolver{engine: eng, logger: logger, opts: opts}
	for _, lib := range opts.Libraries {
		ok, reason := lib.Manifest.Compatible(opts.Generator, opts.ToolVersion, opts.GeneratorVersion)
		if !ok {
			logger.Info("skipping incompatible library", "library", lib.Name, "reason", reason)
			continue
		}
		r.compatible = append(r.compatible, lib)
	}
	return r
}

// Resolve filters the requested precedence order (the full fixed set when
// nil) down to the categories actually available. The base category is
// guaranteed present as the terminal fallback; if nothing else survives
// filtering, a warning is recorded and base alone is returned.
func (r *Resolver) Resolve(requested []Category) []Category {
	if len(requested) == 0 {
		requested = DefaultOrder
	}

	var resolved []Category
	hasBase := false
	for _, cat := range requested {
		if !Known(cat) {
			r.logger.Warn("ignoring unknown source category", "category", string(cat))
			continue
		}
		ok, reason := r.available(cat)
		if !ok {
			r.logger.Debug("source category unavailable", "category", string(cat), "reason", reason)
			continue
		}
		if cat == CategoryBase {
			hasBase = true
		}
		resolved = append(resolved, cat)
	}

	if !hasBase {
		resolved = append([]Category{CategoryBase}, resolved...)
	}
	if len(resolved) == 1 {
		r.logger.Warn("no customization sources available, base templates pass through unmodified")
	}
	return resolved
}

// available reports whether a category can contribute anything. Plugin and
// base sources always can; user and library sources need at least one
// matching file.
func (r *Resolver) available(cat Category) (bool, string) {
	switch cat {
	case CategoryBase, CategoryPlugin:
		return true, ""
	case CategoryLibraryTemplates:
		for _, lib := range r.compatible {
			if len(lib.Templates) > 0 {
				return true, ""
			}
		}
		return false, "no compatible library ships templates"
	case CategoryLibraryCustomizations:
		for _, lib := range r.compatible {
			if len(lib.Customizations) > 0 {
				return true, ""
			}
		}
		return false, "no compatible library ships customizations"
	case CategoryUserCustomizations:
		return dirHasFiles(r.opts.UserCustomizationDir, ".yaml")
	case CategoryUserTemplates:
		return dirHasFiles(r.opts.UserTemplateDir, ".mustache")
	}
	return false, "unknown category"
}

// Customize runs the full precedence merge for one template: every
// available category is applied lowest to highest, each seeing the text the
// previous ones produced. A malformed rule document is fatal to that
// document only and is skipped with a logged error; an engine failure is
// fatal to this template's pass.
func (r *Resolver) Customize(name, base string, order []Category) (string, error) {
	if len(order) == 0 {
		order = r.Resolve(nil)
	}

	text := base
	var err error
	for _, cat := range order {
		switch cat {
		case CategoryBase:
			// The base template is the starting text.
		case CategoryPlugin:
			text, err = r.applyDoc(name, text, "plugin/"+name, r.opts.PluginCustomizations[name])
		case CategoryLibraryTemplates:
			for _, lib := range r.compatible {
				if tmpl, ok := lib.Templates[name]; ok {
					text = tmpl
				}
			}
		case CategoryLibraryCustomizations:
			for _, lib := range r.compatible {
				src, ok := lib.Customizations[name]
				if !ok {
					continue
				}
				text, err = r.applyDoc(name, text, lib.Name+"/customizations/"+name, src)
				if err != nil {
					return "", err
				}
			}
		case CategoryUserCustomizations:
			text, err = r.applyUserCustomization(name, text)
		case CategoryUserTemplates:
			if r.opts.UserTemplateDir != "" {
				if data, readErr := os.ReadFile(filepath.Join(r.opts.UserTemplateDir, name)); readErr == nil {
					text = string(data)
				}
			}
		}
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

func (r *Resolver) applyUserCustomization(name, text string) (string, error) {
	if r.opts.UserCustomizationDir == "" {
		return text, nil
	}
	path := filepath.Join(r.opts.UserCustomizationDir, customizationFileName(name))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return text, nil
	}
	if err != nil {
		r.logger.Error("cannot read user customization", "path", path, "error", err)
		return text, nil
	}
	return r.applyDoc(name, text, path, string(data))
}

// applyDoc parses (memoized) and applies one rule document. An empty source
// is a no-op; a parse failure skips the document.
func (r *Resolver) applyDoc(name, text, sourceID, src string) (string, error) {
	if src == "" {
		return text, nil
	}

	doc, err := r.parseOnce(sourceID, src)
	if err != nil {
		r.logger.Error("skipping malformed customization", "source", sourceID, "error", err)
		return text, nil
	}

	ctx := conditions.NewContext(r.opts.GeneratorVersion, text, r.opts.Properties, r.opts.Env)
	ctx.TemplateName = name
	return r.engine.Apply(text, doc, ctx)
}

func (r *Resolver) parseOnce(sourceID, src string) (*rules.Document, error) {
	if v, ok := r.parsed.Load(sourceID); ok {
		return v.(*rules.Document), nil
	}
	doc, err := r.engine.Parse(sourceID, []byte(src))
	if err != nil {
		return nil, err
	}
	actual, _ := r.parsed.LoadOrStore(sourceID, doc)
	return actual.(*rules.Document), nil
}

// customizationFileName maps a template name to its rule document file:
// pojo.mustache is customized by pojo.yaml.
func customizationFileName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".yaml"
}

func dirHasFiles(dir, ext string) (bool, string) {
	if dir == "" {
		return false, "no directory configured"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, "directory does not exist"
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ext) {
			return true, ""
		}
	}
	return false, "directory contains no " + ext + " files"
}
