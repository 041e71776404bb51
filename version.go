// Package modelgen customizes OpenAPI generator templates from declarative
// YAML rule documents before code generation runs.
package modelgen

// Version is the modelgen release version.
const Version = "0.4.0"
