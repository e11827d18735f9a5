package jsondoc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name: "test-learner",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"day":   map[string]any{"type": "integer", "minimum": 1},
				"level": map[string]any{"type": "string", "enum": []any{"easy", "medium", "hard"}},
			},
			"required": []any{"name", "day"},
		},
	}
}

type learner struct {
	Name  string `json:"name"`
	Day   int    `json:"day"`
	Level string `json:"level"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"name":"Ana","day":3,"level":"hard"}`, false},
		{"optional omitted", `{"name":"Ana","day":3}`, false},
		{"missing required", `{"name":"Ana"}`, true},
		{"wrong type", `{"name":"Ana","day":"three"}`, true},
		{"below minimum", `{"name":"Ana","day":0}`, true},
		{"bad enum", `{"name":"Ana","day":1,"level":"extreme"}`, true},
		{"not json", `{name:`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(testSchema(), []byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if vErr.Schema != "test-learner" {
					t.Errorf("Schema = %q, want test-learner", vErr.Schema)
				}
			}
		})
	}
}

func TestSchemaCache(t *testing.T) {
	s := testSchema()
	if _, err := Validate(s, []byte(`{"name":"a","day":1}`)); err != nil {
		t.Fatal(err)
	}
	if _, ok := schemaCache.Load(s.Name); !ok {
		t.Fatal("expected compiled schema to be cached")
	}
}

func TestDecodeFile_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "learner.yaml")
	jsonPath := filepath.Join(dir, "learner.json")

	if err := os.WriteFile(yamlPath, []byte("name: Ana\nday: 4\nlevel: medium\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsonPath, []byte(`{"name":"Ana","day":4,"level":"medium"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{yamlPath, jsonPath} {
		var got learner
		if err := DecodeFile(testSchema(), p, &got); err != nil {
			t.Fatalf("DecodeFile(%s): %v", filepath.Base(p), err)
		}
		if got != (learner{Name: "Ana", Day: 4, Level: "medium"}) {
			t.Errorf("DecodeFile(%s) = %+v", filepath.Base(p), got)
		}
	}
}

func TestDecodeFile_Missing(t *testing.T) {
	var got learner
	err := DecodeFile(testSchema(), filepath.Join(t.TempDir(), "nope.json"), &got)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestIsYAML(t *testing.T) {
	tests := map[string]bool{
		"a.yaml": true,
		"a.YML":  true,
		"a.json": false,
		"a":      false,
	}
	for in, want := range tests {
		if got := IsYAML(in); got != want {
			t.Errorf("IsYAML(%q) = %v, want %v", in, got, want)
		}
	}
}
