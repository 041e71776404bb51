// Package sources discovers which customization source categories are
// available, filters library sources by compatibility manifest, and merges
// customizations in precedence order so higher-precedence sources win on
// overlapping edits.
package sources

// Category is one logical origin of templates or customizations.
type Category string

const (
	// CategoryBase is the stock generator template set. It is always
	// available and acts as the terminal fallback: with no other source,
	// the base template passes through unmodified.
	CategoryBase Category = "openapi-generator"

	// CategoryPlugin holds customizations shipped with the tool itself.
	CategoryPlugin Category = "plugin"

	// Library artifacts contribute whole templates and rule documents.
	CategoryLibraryTemplates      Category = "library-templates"
	CategoryLibraryCustomizations Category = "library-customizations"

	// User sources come from project-local directories.
	CategoryUserCustomizations Category = "user-customizations"
	CategoryUserTemplates      Category = "user-templates"
)

// DefaultOrder is the full precedence order, lowest first. Customizations
// are applied in this order so later categories override earlier ones.
var DefaultOrder = []Category{
	CategoryBase,
	CategoryPlugin,
	CategoryLibraryTemplates,
	CategoryLibraryCustomizations,
	CategoryUserCustomizations,
	CategoryUserTemplates,
}

// Known reports whether c is one of the fixed categories.
func Known(c Category) bool {
	for _, k := range DefaultOrder {
		if c == k {
			return true
		}
	}
	return false
}
