package schema

import "testing"

type weatherResponse struct {
	Location    string `json:"location" jsonschema:"required,description=City name"`
	Temperature string `json:"temperature" jsonschema:"required"`
	Condition   string `json:"condition" jsonschema:"required"`
}

func TestReflectGenerator_Generate(t *testing.T) {
	g := NewReflectGenerator()

	out, err := g.Generate(&weatherResponse{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	props, ok := out["properties"].(map[string]any)
	if !ok {
		t.Fatalf("Generate() output missing properties map: %+v", out)
	}
	if _, ok := props["location"]; !ok {
		t.Errorf("Generate() properties = %+v, want a location field", props)
	}
}

func TestReflectGenerator_Cache(t *testing.T) {
	g := NewReflectGenerator()

	first, err := g.Generate(&weatherResponse{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := g.Generate(&weatherResponse{})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("cached Generate() result diverged: %+v vs %+v", first, second)
	}
}
