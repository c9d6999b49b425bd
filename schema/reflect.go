package schema

import (
	"encoding/json"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

// ReflectGenerator is the default Generator, reflecting a JSON Schema from
// a Go struct's fields and `json`/`jsonschema` tags. Grounded on the
// teacher's internal/config/schema.go, which reflects its Config struct the
// same way for its own config-schema endpoint.
type ReflectGenerator struct {
	mu     sync.Mutex
	cache  map[string]map[string]any
	reflector *jsonschema.Reflector
}

// NewReflectGenerator returns a Generator backed by invopop/jsonschema. The
// returned schemas use "json" struct tags for field names, matching
// encoding/json's own behavior so a type's wire format and its schema never
// drift apart.
func NewReflectGenerator() *ReflectGenerator {
	return &ReflectGenerator{
		cache: make(map[string]map[string]any),
		reflector: &jsonschema.Reflector{
			FieldNameTag:               "json",
			RequiredFromJSONSchemaTags: false,
			DoNotReference:             true,
		},
	}
}

// Generate reflects target's type into a JSON Schema map, caching by the
// type's name so repeated calls for the same structured-output target are
// cheap.
func (g *ReflectGenerator) Generate(target any) (map[string]any, error) {
	key := typeKey(target)

	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	reflected := g.reflector.Reflect(target)
	encoded, err := json.Marshal(reflected)
	if err != nil {
		return nil, err
	}
	var asMap map[string]any
	if err := json.Unmarshal(encoded, &asMap); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = asMap
	g.mu.Unlock()
	return asMap, nil
}

func typeKey(target any) string {
	if target == nil {
		return "<nil>"
	}
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
