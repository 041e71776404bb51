package rules

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ryansmith4/openapi-modelgen-sub000/internal/semantic"
)

// Closed key sets per document region. Anything outside these is a hard
// parse failure, never a silent drop.
var (
	rootKeys = keySet("metadata", "conditions", "insertions", "replacements",
		"smartReplacements", "smartInsertions", "partials")
	insertionKeys        = keySet("after", "before", "at", "content", "conditions", "fallback")
	replacementKeys      = keySet("find", "replace", "type", "conditions", "fallback")
	smartReplacementKeys = keySet("findAny", "semantic", "findPattern", "replace")
	smartInsertionKeys   = keySet("semantic", "findInsertionPoint", "content", "conditions", "fallback")
	insertionPointKeys   = keySet("after", "before")
	conditionKeys        = keySet("generatorVersion", "templateContains", "templateNotContains",
		"features", "projectProperties", "environment")
)

// keyGuidance maps common authoring mistakes to targeted suggestions.
var keyGuidance = map[string]string{
	"pattern":     "use 'after' or 'before' to anchor the insertion",
	"regex":       "use 'find' with 'type: regex'",
	"insert":      "use 'content'",
	"replacement": "use 'replace'",
	"condition":   "use 'conditions'",
	"partial":     "use a top-level 'partials' map",
}

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func allowedList(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// validator walks the raw document tree before typed binding.
type validator struct {
	source string
}

// validateTree checks the raw parsed document against the closed schema.
// The root must be a mapping (an empty document is allowed).
func (v *validator) validateTree(root *yaml.Node) error {
	doc := unwrapDocument(root)
	if doc == nil || doc.Tag == "!!null" {
		return nil
	}
	if doc.Kind != yaml.MappingNode {
		return v.errAt(doc, "", "document root must be a mapping", "")
	}

	for key, value := range mappingEntries(doc) {
		name := key.Value
		if !rootKeys[name] {
			return v.unknownKey(key, name, "", rootKeys)
		}

		var err error
		switch name {
		case "metadata":
			err = v.requireMapping(value, "metadata")
		case "partials":
			err = v.requireMapping(value, "partials")
		case "conditions":
			err = v.validateConditions(value, "conditions")
		case "insertions":
			err = v.validateSequence(value, "insertions", func(item *yaml.Node, path string) error {
				return v.validateInsertion(item, path, 0)
			})
		case "replacements":
			err = v.validateSequence(value, "replacements", func(item *yaml.Node, path string) error {
				return v.validateReplacement(item, path, 0)
			})
		case "smartReplacements":
			err = v.validateSequence(value, "smartReplacements", v.validateSmartReplacement)
		case "smartInsertions":
			err = v.validateSequence(value, "smartInsertions", v.validateSmartInsertion)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateSequence(node *yaml.Node, path string, item func(*yaml.Node, string) error) error {
	if node.Kind != yaml.SequenceNode {
		return v.errAt(node, path, "must be a list", "")
	}
	for i, child := range node.Content {
		if err := item(child, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateInsertion(node *yaml.Node, path string, depth int) error {
	if depth > MaxFallbackDepth {
		return v.errAt(node, path, fmt.Sprintf("fallback chain exceeds maximum depth %d", MaxFallbackDepth), "")
	}
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping", "")
	}

	var anchors []string
	var atNode *yaml.Node
	hasContent := false

	for key, value := range mappingEntries(node) {
		name := key.Value
		if !insertionKeys[name] {
			return v.unknownKey(key, name, path, insertionKeys)
		}
		switch name {
		case "after", "before", "at":
			anchors = append(anchors, name)
			if name == "at" {
				atNode = value
			}
		case "content":
			hasContent = true
		case "conditions":
			if err := v.validateConditions(value, path+".conditions"); err != nil {
				return err
			}
		case "fallback":
			if err := v.validateInsertion(value, path+".fallback", depth+1); err != nil {
				return err
			}
		}
	}

	if len(anchors) != 1 {
		return v.errAt(node, path,
			fmt.Sprintf("exactly one of 'after', 'before', 'at' is required, found %d", len(anchors)), "")
	}
	if atNode != nil {
		at := strings.ToLower(atNode.Value)
		if at != "start" && at != "end" {
			return v.errAt(atNode, path+".at",
				fmt.Sprintf("invalid value %q", atNode.Value), "use 'start' or 'end'")
		}
	}
	if !hasContent {
		return v.errAt(node, path, "'content' is required", "")
	}
	return nil
}

func (v *validator) validateReplacement(node *yaml.Node, path string, depth int) error {
	if depth > MaxFallbackDepth {
		return v.errAt(node, path, fmt.Sprintf("fallback chain exceeds maximum depth %d", MaxFallbackDepth), "")
	}
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping", "")
	}

	var hasFind, hasReplace bool
	for key, value := range mappingEntries(node) {
		name := key.Value
		if !replacementKeys[name] {
			return v.unknownKey(key, name, path, replacementKeys)
		}
		switch name {
		case "find":
			hasFind = true
		case "replace":
			hasReplace = true
		case "type":
			if value.Value != TypeString && value.Value != TypeRegex {
				return v.errAt(value, path+".type",
					fmt.Sprintf("invalid type %q", value.Value), "use 'string' or 'regex'")
			}
		case "conditions":
			if err := v.validateConditions(value, path+".conditions"); err != nil {
				return err
			}
		case "fallback":
			if err := v.validateReplacement(value, path+".fallback", depth+1); err != nil {
				return err
			}
		}
	}

	if !hasFind || !hasReplace {
		return v.errAt(node, path, "both 'find' and 'replace' are required", "")
	}
	return nil
}

func (v *validator) validateSmartReplacement(node *yaml.Node, path string) error {
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping", "")
	}

	var selectors []string
	var semanticNode *yaml.Node
	hasReplace := false

	for key, value := range mappingEntries(node) {
		name := key.Value
		if !smartReplacementKeys[name] {
			return v.unknownKey(key, name, path, smartReplacementKeys)
		}
		switch name {
		case "findAny", "semantic", "findPattern":
			selectors = append(selectors, name)
			if name == "semantic" {
				semanticNode = value
			}
		case "replace":
			hasReplace = true
		}
	}

	if len(selectors) != 1 {
		return v.errAt(node, path,
			fmt.Sprintf("exactly one of 'findAny', 'semantic', 'findPattern' is required, found %d", len(selectors)), "")
	}
	if !hasReplace {
		return v.errAt(node, path, "'replace' is required", "")
	}
	if semanticNode != nil {
		if err := v.validateConcept(semanticNode, path+".semantic", false); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) validateSmartInsertion(node *yaml.Node, path string) error {
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping", "")
	}

	var selectors []string
	hasContent := false

	for key, value := range mappingEntries(node) {
		name := key.Value
		if !smartInsertionKeys[name] {
			return v.unknownKey(key, name, path, smartInsertionKeys)
		}
		switch name {
		case "semantic":
			selectors = append(selectors, name)
			if err := v.validateConcept(value, path+".semantic", true); err != nil {
				return err
			}
		case "findInsertionPoint":
			selectors = append(selectors, name)
			if err := v.validateInsertionPoints(value, path+".findInsertionPoint"); err != nil {
				return err
			}
		case "content":
			hasContent = true
		case "conditions":
			if err := v.validateConditions(value, path+".conditions"); err != nil {
				return err
			}
		case "fallback":
			if err := v.validateInsertion(value, path+".fallback", 1); err != nil {
				return err
			}
		}
	}

	if len(selectors) != 1 {
		return v.errAt(node, path,
			fmt.Sprintf("exactly one of 'semantic', 'findInsertionPoint' is required, found %d", len(selectors)), "")
	}
	if !hasContent {
		return v.errAt(node, path, "'content' is required", "")
	}
	return nil
}

func (v *validator) validateInsertionPoints(node *yaml.Node, path string) error {
	if node.Kind != yaml.SequenceNode {
		return v.errAt(node, path, "must be a list of {after|before} anchors", "")
	}
	for i, item := range node.Content {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if item.Kind != yaml.MappingNode {
			return v.errAt(item, itemPath, "must be a mapping with 'after' or 'before'", "")
		}
		count := 0
		for key := range mappingEntries(item) {
			if !insertionPointKeys[key.Value] {
				return v.unknownKey(key, key.Value, itemPath, insertionPointKeys)
			}
			count++
		}
		if count != 1 {
			return v.errAt(item, itemPath,
				fmt.Sprintf("exactly one of 'after', 'before' is required, found %d", count), "")
		}
	}
	return nil
}

// validateConcept checks a semantic name against the resolver's concept
// table. Whole-file concepts are valid targets for insertion but not for
// replacement.
func (v *validator) validateConcept(node *yaml.Node, path string, allowWholeFile bool) error {
	name := node.Value
	if !semantic.KnownConcept(name) {
		return v.errAt(node, path, fmt.Sprintf("unknown semantic concept %q", name),
			"known concepts: "+strings.Join(sortedConcepts(), ", "))
	}
	if !allowWholeFile && (name == semantic.StartOfFile || name == semantic.EndOfFile) {
		return v.errAt(node, path,
			fmt.Sprintf("concept %q cannot be used as a replacement target", name), "")
	}
	return nil
}

func (v *validator) validateConditions(node *yaml.Node, path string) error {
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping of condition clauses", "")
	}
	for key := range mappingEntries(node) {
		if !conditionKeys[key.Value] {
			return v.unknownKey(key, key.Value, path, conditionKeys)
		}
	}
	return nil
}

func (v *validator) requireMapping(node *yaml.Node, path string) error {
	if node.Kind != yaml.MappingNode {
		return v.errAt(node, path, "must be a mapping", "")
	}
	return nil
}

func (v *validator) unknownKey(node *yaml.Node, key, path string, allowed map[string]bool) error {
	field := key
	if path != "" {
		field = path + "." + key
	}
	suggestion := keyGuidance[key]
	if suggestion == "" {
		suggestion = "allowed keys: " + allowedList(allowed)
	}
	return &ConfigurationError{
		Source:     v.source,
		Field:      field,
		Line:       node.Line,
		Message:    fmt.Sprintf("unknown key %q", key),
		Suggestion: suggestion,
	}
}

func (v *validator) errAt(node *yaml.Node, field, message, suggestion string) error {
	line := 0
	if node != nil {
		line = node.Line
	}
	return &ConfigurationError{
		Source:     v.source,
		Field:      field,
		Line:       line,
		Message:    message,
		Suggestion: suggestion,
	}
}

func sortedConcepts() []string {
	names := semantic.ConceptNames()
	sort.Strings(names)
	return names
}

// unwrapDocument returns the content node of a document node, or nil for an
// empty document.
func unwrapDocument(root *yaml.Node) *yaml.Node {
	if root == nil || root.Kind == 0 {
		return nil
	}
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		return root.Content[0]
	}
	return root
}

// mappingEntries iterates key/value node pairs of a mapping node.
func mappingEntries(node *yaml.Node) func(yield func(*yaml.Node, *yaml.Node) bool) {
	return func(yield func(*yaml.Node, *yaml.Node) bool) {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !yield(node.Content[i], node.Content[i+1]) {
				return
			}
		}
	}
}
