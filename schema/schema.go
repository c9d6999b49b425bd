// Package schema declares the SchemaGenerator external capability (spec §9)
// and provides a default reflection-based implementation so callers are not
// forced to hand-write JSON Schema for every structured-output target.
package schema

// Generator produces a JSON Schema draft 2020-12 object describing the
// shape of target, a Go value (typically a pointer to a struct used purely
// for its type). Implementations must support "required" and "description"
// field annotations. The structured-output coordinator calls Generate once,
// in structuredoutput.New; ReflectGenerator caches its result per type.
type Generator interface {
	Generate(target any) (map[string]any, error)
}
