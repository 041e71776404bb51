package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Parse validates and binds a rule document. The returned Document is
// immutable; source is used in error messages and diagnostics.
//
// Parsing happens in three passes: a raw-tree walk against the closed
// schema, a strict typed decode, and a completeness check that recounts raw
// list elements against the bound model. The last pass exists to catch
// binder data loss: a decoder quirk that silently drops rules must fail the
// document, not ship half a customization.
func Parse(source string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ConfigurationError{
			Source:  source,
			Message: fmt.Sprintf("malformed YAML: %v", err),
		}
	}

	v := &validator{source: source}
	if err := v.validateTree(&root); err != nil {
		return nil, err
	}

	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigurationError{
			Source:  source,
			Message: fmt.Sprintf("failed to bind document: %v", err),
		}
	}

	if err := checkCompleteness(source, &root, &doc); err != nil {
		return nil, err
	}

	doc.source = source
	doc.raw = string(data)
	return &doc, nil
}

// checkCompleteness compares raw element counts per list category against
// the bound document. A mismatch means the binder silently lost data.
func checkCompleteness(source string, root *yaml.Node, doc *Document) error {
	counts := map[string]int{
		"insertions":        len(doc.Insertions),
		"replacements":      len(doc.Replacements),
		"smartReplacements": len(doc.SmartReplacements),
		"smartInsertions":   len(doc.SmartInsertions),
	}

	mapping := unwrapDocument(root)
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}

	for key, value := range mappingEntries(mapping) {
		bound, tracked := counts[key.Value]
		if !tracked || value.Kind != yaml.SequenceNode {
			continue
		}
		if raw := len(value.Content); raw != bound {
			return &ConfigurationError{
				Source:  source,
				Field:   key.Value,
				Line:    key.Line,
				Message: fmt.Sprintf("deserialization lost data: document declares %d %s but %d were bound", raw, key.Value, bound),
			}
		}
	}
	return nil
}
