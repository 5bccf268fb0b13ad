package physics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseSpaceParams_KeepsDefaults(t *testing.T) {
	params, err := ParseSpaceParams([]byte("solver_iterations: 4\ndefault_gravity: 20\n"))
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultSpaceParams()
	if params.SolverIterations != 4 || params.DefaultGravity != 20 {
		t.Errorf("Expected the file's values, got %+v", params)
	}
	if params.TimeBeforeSleep != def.TimeBeforeSleep || params.DefaultGravityVector != def.DefaultGravityVector {
		t.Error("Missing keys should keep their default")
	}
}

func TestParseSpaceParams_Vector(t *testing.T) {
	for _, doc := range []string{
		"default_gravity_vector: [1, 0]\n",
		"default_gravity_vector: {x: 1, y: 0}\n",
	} {
		params, err := ParseSpaceParams([]byte(doc))
		if err != nil {
			t.Fatal(doc, err)
		}
		if params.DefaultGravityVector != (Vector{1, 0}) {
			t.Errorf("%q: got %v", doc, params.DefaultGravityVector)
		}
	}
	if _, err := ParseSpaceParams([]byte("default_gravity_vector: [1, 2, 3]\n")); err == nil {
		t.Error("Expected an error for a vector of 3")
	}
	if _, err := ParseSpaceParams([]byte("default_gravity_vector: 5\n")); err == nil {
		t.Error("Expected an error for a scalar vector")
	}
}

func TestParseSpaceParams_Invalid(t *testing.T) {
	for _, doc := range []string{
		"solver_iterations: 0\n",
		"workers: -1\n",
		"contact_max_separation: -0.5\n",
		"time_before_sleep: -1\n",
	} {
		if _, err := ParseSpaceParams([]byte(doc)); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%q: expected ErrInvalidParameter, got %v", doc, err)
		}
	}
	if _, err := ParseSpaceParams([]byte("solver_iterations: [")); err == nil {
		t.Error("Expected malformed YAML to fail")
	}
}

func TestLoadSpaceParams(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "space.yaml")
	if err := os.WriteFile(filename, []byte("workers: 2\nsleep_threshold_linear: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	params, err := LoadSpaceParams(filename)
	if err != nil {
		t.Fatal(err)
	}
	if params.Workers != 2 || params.workers() != 2 || params.SleepThresholdLinear != 0.5 {
		t.Errorf("Unexpected params %+v", params)
	}
	if _, err := LoadSpaceParams(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not exist error, got %v", err)
	}
	if DefaultSpaceParams().workers() < 1 {
		t.Error("Zero workers should fall back to GOMAXPROCS")
	}
}
