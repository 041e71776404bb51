package sources

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	if opts.Generator == "" {
		opts.Generator = "spring"
	}
	if opts.ToolVersion == "" {
		opts.ToolVersion = "1.3.0"
	}
	if opts.GeneratorVersion == "" {
		opts.GeneratorVersion = "7.4.0"
	}
	eng := engine.New(engine.WithLogger(discardLogger()))
	return NewResolver(eng, opts, discardLogger())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestResolveDefaultsToBaseAndPlugin(t *testing.T) {
	r := newTestResolver(t, Options{})

	resolved := r.Resolve(nil)
	assert.Equal(t, []Category{CategoryBase, CategoryPlugin}, resolved)
}

func TestResolveDiscoversUserDirs(t *testing.T) {
	tmp := t.TempDir()
	custDir := filepath.Join(tmp, "customizations")
	tmplDir := filepath.Join(tmp, "templates")
	writeFile(t, custDir, "pojo.yaml", "insertions:\n  - at: end\n    content: x\n")
	writeFile(t, tmplDir, "api.mustache", "user template")

	r := newTestResolver(t, Options{
		UserCustomizationDir: custDir,
		UserTemplateDir:      tmplDir,
	})

	resolved := r.Resolve(nil)
	assert.Contains(t, resolved, CategoryUserCustomizations)
	assert.Contains(t, resolved, CategoryUserTemplates)
}

func TestResolveSkipsEmptyUserDirs(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "empty"), 0755))

	r := newTestResolver(t, Options{
		UserCustomizationDir: filepath.Join(tmp, "empty"),
		UserTemplateDir:      filepath.Join(tmp, "missing"),
	})

	resolved := r.Resolve(nil)
	assert.NotContains(t, resolved, CategoryUserCustomizations)
	assert.NotContains(t, resolved, CategoryUserTemplates)
}

func TestResolveGuaranteesBase(t *testing.T) {
	r := newTestResolver(t, Options{})

	resolved := r.Resolve([]Category{CategoryUserTemplates})
	assert.Equal(t, []Category{CategoryBase}, resolved)
}

func TestResolveIgnoresUnknownCategory(t *testing.T) {
	r := newTestResolver(t, Options{})

	resolved := r.Resolve([]Category{CategoryBase, Category("mystery")})
	assert.Equal(t, []Category{CategoryBase}, resolved)
}

func TestManifestFilteringSkipsIncompatibleLibraries(t *testing.T) {
	compatible := &Library{
		Name:      "lib-ok",
		Templates: map[string]string{"pojo.mustache": "lib template"},
		Manifest:  &Manifest{SupportedGenerators: []string{"spring"}},
	}
	incompatible := &Library{
		Name:      "lib-no",
		Templates: map[string]string{"pojo.mustache": "other"},
		Manifest:  &Manifest{SupportedGenerators: []string{"kotlin"}},
	}

	r := newTestResolver(t, Options{Libraries: []*Library{incompatible, compatible}})

	require.Len(t, r.compatible, 1)
	assert.Equal(t, "lib-ok", r.compatible[0].Name)

	resolved := r.Resolve(nil)
	assert.Contains(t, resolved, CategoryLibraryTemplates)
}

func TestCustomizePrecedenceMerge(t *testing.T) {
	// Two sources touch the same marker: the plugin (lower precedence) sets
	// it to 1, the user customization (higher precedence) sets it to 2.
	tmp := t.TempDir()
	writeFile(t, tmp, "pojo.yaml", "replacements:\n  - find: \"X->1\"\n    replace: \"X->2\"\n")

	r := newTestResolver(t, Options{
		PluginCustomizations: map[string]string{
			"pojo.mustache": "replacements:\n  - find: \"X->0\"\n    replace: \"X->1\"\n",
		},
		UserCustomizationDir: tmp,
	})

	out, err := r.Customize("pojo.mustache", "value X->0 end", nil)
	require.NoError(t, err)
	assert.Equal(t, "value X->2 end", out)
}

func TestCustomizeLibraryTemplateOverridesBase(t *testing.T) {
	lib := &Library{
		Name:      "brand",
		Templates: map[string]string{"pojo.mustache": "branded template"},
	}

	r := newTestResolver(t, Options{Libraries: []*Library{lib}})

	out, err := r.Customize("pojo.mustache", "base template", nil)
	require.NoError(t, err)
	assert.Equal(t, "branded template", out)
}

func TestCustomizeUserTemplateWinsOverEverything(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "pojo.mustache", "user template")

	lib := &Library{
		Name:      "brand",
		Templates: map[string]string{"pojo.mustache": "branded"},
	}

	r := newTestResolver(t, Options{
		Libraries:       []*Library{lib},
		UserTemplateDir: tmp,
	})

	out, err := r.Customize("pojo.mustache", "base", nil)
	require.NoError(t, err)
	assert.Equal(t, "user template", out)
}

func TestCustomizeLibraryCustomizationsStack(t *testing.T) {
	first := &Library{
		Name: "first",
		Customizations: map[string]string{
			"pojo.mustache": "insertions:\n  - at: end\n    content: \"+first\"\n",
		},
	}
	second := &Library{
		Name: "second",
		Customizations: map[string]string{
			"pojo.mustache": "insertions:\n  - at: end\n    content: \"+second\"\n",
		},
	}

	r := newTestResolver(t, Options{Libraries: []*Library{first, second}})

	out, err := r.Customize("pojo.mustache", "base", nil)
	require.NoError(t, err)
	assert.Equal(t, "base+first+second", out)
}

func TestCustomizeMalformedDocumentIsSkipped(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, tmp, "pojo.yaml", "bogusKey: true\n")

	r := newTestResolver(t, Options{
		PluginCustomizations: map[string]string{
			"pojo.mustache": "insertions:\n  - at: end\n    content: \"+plugin\"\n",
		},
		UserCustomizationDir: tmp,
	})

	// The malformed user document is fatal to itself only; the plugin
	// customization still applies.
	out, err := r.Customize("pojo.mustache", "base", nil)
	require.NoError(t, err)
	assert.Equal(t, "base+plugin", out)
}

func TestCustomizeNoSourcesPassesBaseThrough(t *testing.T) {
	r := newTestResolver(t, Options{})

	out, err := r.Customize("pojo.mustache", "untouched", nil)
	require.NoError(t, err)
	assert.Equal(t, "untouched", out)
}

func TestLoadLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates"), "pojo.mustache", "template body")
	writeFile(t, filepath.Join(dir, "customizations"), "pojo.yaml", "insertions:\n  - at: end\n    content: x\n")
	writeFile(t, dir, "manifest.yaml", "supportedGenerators: [spring]\nminToolVersion: \"1.0.0\"\n")

	lib, err := LoadLibrary(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Base(dir), lib.Name)
	assert.Equal(t, "template body", lib.Templates["pojo.mustache"])
	assert.Contains(t, lib.Customizations, "pojo.mustache")
	require.NotNil(t, lib.Manifest)
	assert.Equal(t, []string{"spring"}, lib.Manifest.SupportedGenerators)
}

func TestLoadLibraryWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates"), "api.mustache", "x")

	lib, err := LoadLibrary(dir)
	require.NoError(t, err)
	assert.Nil(t, lib.Manifest)
	assert.Len(t, lib.Templates, 1)
	assert.Empty(t, lib.Customizations)
}

func TestLoadLibraryMissingDir(t *testing.T) {
	_, err := LoadLibrary(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
