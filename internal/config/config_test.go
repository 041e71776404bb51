package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/sources"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0644))
}

func TestLoadComplete(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
generator:
  name: spring
  version: 7.14.0
templates:
  dir: base-templates
libraries:
  - libs/validation
  - libs/lombok
customizations:
  plugin: plugin-customizations
  user: user-customizations
  userTemplates: user-templates
output:
  dir: out
properties:
  useLombok: "true"
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "spring", cfg.Generator)
	assert.Equal(t, "7.14.0", cfg.GeneratorVersion)
	assert.Equal(t, filepath.Join(dir, "base-templates"), cfg.TemplateDir)
	assert.Equal(t, []string{
		filepath.Join(dir, "libs/validation"),
		filepath.Join(dir, "libs/lombok"),
	}, cfg.LibraryDirs)
	assert.Equal(t, filepath.Join(dir, "plugin-customizations"), cfg.PluginCustomizationDir)
	assert.Equal(t, filepath.Join(dir, "user-customizations"), cfg.UserCustomizationDir)
	assert.Equal(t, filepath.Join(dir, "user-templates"), cfg.UserTemplateDir)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutputDir)
	assert.Equal(t, "true", cfg.Properties["useLombok"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "modelgen.yml not found")
}

func TestLoadMissingGenerator(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "templates:\n  dir: base\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "generator name not specified")
}

func TestLoadMissingTemplateDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "generator:\n  name: spring\n")

	_, err := Load(dir)
	assert.ErrorContains(t, err, "templates.dir not specified")
}

func TestLoadDefaultOutputDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "generator:\n  name: spring\ntemplates:\n  dir: base\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated-templates"), cfg.OutputDir)
}

func TestLoadRejectsUnknownPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
generator:
  name: spring
templates:
  dir: base
precedence:
  - openapi-generator
  - nonsense
`)

	_, err := Load(dir)
	assert.ErrorContains(t, err, `unknown precedence category "nonsense"`)
}

func TestPrecedenceOrder(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, sources.DefaultOrder, cfg.PrecedenceOrder())

	cfg.Precedence = []string{"openapi-generator", "user-customizations"}
	assert.Equal(t, []sources.Category{
		sources.CategoryBase,
		sources.CategoryUserCustomizations,
	}, cfg.PrecedenceOrder())
}

func TestLoadAbsolutePathsPreserved(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
generator:
  name: spring
templates:
  dir: /abs/templates
output:
  dir: /abs/out
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/abs/templates", cfg.TemplateDir)
	assert.Equal(t, "/abs/out", cfg.OutputDir)
}
