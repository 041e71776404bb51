// Package config loads modelgen.yml, the project-level configuration that
// names the generator, the customization sources, and the output directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/sources"
)

// DefaultFileName is the config file modelgen looks for in the working
// directory.
const DefaultFileName = "modelgen.yml"

// Config is the parsed modelgen.yml.
type Config struct {
	// Generator identifies the target code generator, e.g. "spring".
	Generator string
	// GeneratorVersion is the generator version templates are customized for.
	GeneratorVersion string

	// TemplateDir holds the base templates extracted from the generator.
	TemplateDir string
	// LibraryDirs are template library roots, lowest precedence first.
	LibraryDirs []string
	// PluginCustomizationDir holds plugin-level YAML customization files.
	PluginCustomizationDir string
	// UserTemplateDir holds explicit user template overrides.
	UserTemplateDir string
	// UserCustomizationDir holds user-level YAML customization files.
	UserCustomizationDir string

	// OutputDir receives the customized templates.
	OutputDir string
	// Precedence optionally reorders the source categories.
	Precedence []string
	// Properties are project properties exposed to rule conditions.
	Properties map[string]string
}

// Load reads modelgen.yml from dir (the working directory when empty).
// Environment variables prefixed MODELGEN_ override file values.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s not found. Are you in a modelgen project directory?", DefaultFileName)
	}

	v := viper.New()
	v.SetConfigName("modelgen")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.AutomaticEnv()
	v.SetEnvPrefix("MODELGEN")

	v.SetDefault("output.dir", "generated-templates")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DefaultFileName, err)
	}

	cfg := &Config{
		Generator:              v.GetString("generator.name"),
		GeneratorVersion:       v.GetString("generator.version"),
		TemplateDir:            v.GetString("templates.dir"),
		LibraryDirs:            v.GetStringSlice("libraries"),
		PluginCustomizationDir: v.GetString("customizations.plugin"),
		UserTemplateDir:        v.GetString("customizations.userTemplates"),
		UserCustomizationDir:   v.GetString("customizations.user"),
		OutputDir:              v.GetString("output.dir"),
		Precedence:             v.GetStringSlice("precedence"),
	}

	// Viper lowercases map keys; property names are case-sensitive in rule
	// conditions, so read that section from the file directly.
	props, err := loadProperties(path)
	if err != nil {
		return nil, err
	}
	cfg.Properties = props

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths against the config directory.
	cfg.TemplateDir = resolve(dir, cfg.TemplateDir)
	cfg.PluginCustomizationDir = resolve(dir, cfg.PluginCustomizationDir)
	cfg.UserTemplateDir = resolve(dir, cfg.UserTemplateDir)
	cfg.UserCustomizationDir = resolve(dir, cfg.UserCustomizationDir)
	cfg.OutputDir = resolve(dir, cfg.OutputDir)
	for i, lib := range cfg.LibraryDirs {
		cfg.LibraryDirs[i] = resolve(dir, lib)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Generator == "" {
		return fmt.Errorf("generator name not specified in %s", DefaultFileName)
	}
	if c.TemplateDir == "" {
		return fmt.Errorf("templates.dir not specified in %s", DefaultFileName)
	}
	for _, p := range c.Precedence {
		if !sources.Known(sources.Category(p)) {
			return fmt.Errorf("unknown precedence category %q in %s", p, DefaultFileName)
		}
	}
	return nil
}

// PrecedenceOrder converts the configured precedence into source categories,
// falling back to the default order when none is configured.
func (c *Config) PrecedenceOrder() []sources.Category {
	if len(c.Precedence) == 0 {
		return append([]sources.Category(nil), sources.DefaultOrder...)
	}
	order := make([]sources.Category, 0, len(c.Precedence))
	for _, p := range c.Precedence {
		order = append(order, sources.Category(p))
	}
	return order
}

func loadProperties(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", DefaultFileName, err)
	}
	var doc struct {
		Properties map[string]string `yaml:"properties"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DefaultFileName, err)
	}
	return doc.Properties, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
