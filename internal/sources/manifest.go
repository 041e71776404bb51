package sources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Manifest is a library artifact's compatibility declaration: which
// downstream generators it supports and the minimum host-tool and
// underlying-codegen versions it needs.
type Manifest struct {
	SupportedGenerators []string `yaml:"supportedGenerators,omitempty"`
	MinToolVersion      string   `yaml:"minToolVersion,omitempty"`
	MinGeneratorVersion string   `yaml:"minGeneratorVersion,omitempty"`
}

// ParseManifest decodes a manifest document, rejecting unknown fields.
func ParseManifest(source string, data []byte) (*Manifest, error) {
	var m Manifest
	if err := strictUnmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", source, err)
	}
	return &m, nil
}

// Compatible decides whether a library applies to the given generator and
// detected versions. It returns a human-readable reason when it does not.
// Incompatibility is never an error; callers skip the library and log the
// reason.
func (m *Manifest) Compatible(generator, toolVersion, generatorVersion string) (bool, string) {
	if m == nil {
		return true, ""
	}

	if len(m.SupportedGenerators) > 0 && !containsFold(m.SupportedGenerators, generator) {
		return false, fmt.Sprintf("generator %q not in supported set [%s]",
			generator, strings.Join(m.SupportedGenerators, ", "))
	}

	if ok, reason := minVersionMet(m.MinToolVersion, toolVersion, "tool"); !ok {
		return false, reason
	}
	if ok, reason := minVersionMet(m.MinGeneratorVersion, generatorVersion, "generator"); !ok {
		return false, reason
	}

	return true, ""
}

// minVersionMet fails closed: a required minimum paired with an
// undetectable detected version means incompatible.
func minVersionMet(required, detected, kind string) (bool, string) {
	if required == "" {
		return true, ""
	}
	floor, err := semver.NewVersion(required)
	if err != nil {
		return false, fmt.Sprintf("manifest declares unparseable minimum %s version %q", kind, required)
	}
	have, err := semver.NewVersion(strings.TrimSpace(detected))
	if err != nil {
		return false, fmt.Sprintf("requires %s version >= %s but detected version %q is unparseable", kind, required, detected)
	}
	if have.LessThan(floor) {
		return false, fmt.Sprintf("requires %s version >= %s, detected %s", kind, required, detected)
	}
	return true, ""
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func strictUnmarshal(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
