package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`
supportedGenerators:
  - spring
  - java
minToolVersion: "1.2.0"
minGeneratorVersion: "7.0.0"
`)
	m, err := ParseManifest("manifest.yaml", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"spring", "java"}, m.SupportedGenerators)
	assert.Equal(t, "1.2.0", m.MinToolVersion)
	assert.Equal(t, "7.0.0", m.MinGeneratorVersion)
}

func TestParseManifestRejectsUnknownFields(t *testing.T) {
	_, err := ParseManifest("manifest.yaml", []byte("supportedGenerator: [spring]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest.yaml")
}

func TestManifestCompatible(t *testing.T) {
	m := &Manifest{
		SupportedGenerators: []string{"spring", "java"},
		MinToolVersion:      "1.2.0",
		MinGeneratorVersion: "7.0.0",
	}

	tests := []struct {
		name       string
		generator  string
		tool       string
		genVersion string
		want       bool
		reason     string
	}{
		{"all satisfied", "spring", "1.3.0", "7.4.0", true, ""},
		{"case-insensitive generator", "Spring", "1.2.0", "7.0.0", true, ""},
		{"unsupported generator", "kotlin", "1.3.0", "7.4.0", false, "not in supported set"},
		{"tool too old", "spring", "1.1.0", "7.4.0", false, "requires tool version >= 1.2.0"},
		{"generator too old", "spring", "1.3.0", "6.6.0", false, "requires generator version >= 7.0.0"},
		{"undetectable tool version fails closed", "spring", "unknown", "7.4.0", false, "unparseable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := m.Compatible(tt.generator, tt.tool, tt.genVersion)
			assert.Equal(t, tt.want, ok)
			if tt.reason != "" {
				assert.Contains(t, reason, tt.reason)
			}
		})
	}
}

func TestNilManifestIsAlwaysCompatible(t *testing.T) {
	var m *Manifest
	ok, reason := m.Compatible("anything", "", "")
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestEmptyManifestIsCompatible(t *testing.T) {
	ok, _ := (&Manifest{}).Compatible("spring", "0.0.1", "0.0.1")
	assert.True(t, ok)
}
