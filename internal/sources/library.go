package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Conventional paths inside a library artifact.
const (
	libraryTemplatesDir      = "templates"
	libraryCustomizationsDir = "customizations"
	libraryManifestFile      = "manifest.yaml"
)

// Library is one extracted library artifact: zero or more template files,
// zero or more rule documents keyed by the template they customize, and an
// optional compatibility manifest.
type Library struct {
	Name           string
	Templates      map[string]string // template file name -> content
	Customizations map[string]string // template file name -> rule document source
	Manifest       *Manifest
}

// LoadLibrary reads a library artifact from its conventional directory
// layout: templates/*.mustache, customizations/*.yaml, manifest.yaml.
// Missing pieces are fine; a library may ship only templates or only
// customizations.
func LoadLibrary(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("library %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library %s: not a directory", dir)
	}

	lib := &Library{
		Name:           filepath.Base(dir),
		Templates:      make(map[string]string),
		Customizations: make(map[string]string),
	}

	if err := readDirInto(filepath.Join(dir, libraryTemplatesDir), ".mustache", lib.Templates); err != nil {
		return nil, err
	}
	if err := readDirInto(filepath.Join(dir, libraryCustomizationsDir), ".yaml", lib.Customizations); err != nil {
		return nil, err
	}

	manifestPath := filepath.Join(dir, libraryManifestFile)
	if data, err := os.ReadFile(manifestPath); err == nil {
		m, err := ParseManifest(manifestPath, data)
		if err != nil {
			return nil, err
		}
		lib.Manifest = m
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("library %s: %w", dir, err)
	}

	return lib, nil
}

// LoadTemplateDir reads every .mustache file from dir, keyed by file name.
// A missing directory yields an empty map.
func LoadTemplateDir(dir string) (map[string]string, error) {
	templates := make(map[string]string)
	if err := readDirInto(dir, ".mustache", templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// LoadCustomizationDir reads every .yaml rule document from dir, keyed by
// the template it targets. A missing directory yields an empty map.
func LoadCustomizationDir(dir string) (map[string]string, error) {
	docs := make(map[string]string)
	if err := readDirInto(dir, ".yaml", docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// readDirInto loads every regular file with the given extension from dir.
// Customization files are keyed by the template they target: pojo.yaml
// customizes pojo.mustache.
func readDirInto(dir, ext string, into map[string]string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		key := entry.Name()
		if ext == ".yaml" {
			key = strings.TrimSuffix(key, ".yaml") + ".mustache"
		}
		into[key] = string(data)
	}
	return nil
}
