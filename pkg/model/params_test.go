package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadParamsOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	body := `
iterations = 250
idw_exponent = 4.0
enforce_rangebox = false
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if p.Iterations != 250 {
		t.Errorf("Iterations = %d, want 250", p.Iterations)
	}
	if p.IDWExponent != 4 {
		t.Errorf("IDWExponent = %v, want 4", p.IDWExponent)
	}
	if p.EnforceRangebox {
		t.Error("EnforceRangebox should be overridden to false")
	}
	// Untouched fields keep their defaults.
	if p.MaxStrokeWidthPx != DefaultParams().MaxStrokeWidthPx {
		t.Errorf("MaxStrokeWidthPx = %v, want default", p.MaxStrokeWidthPx)
	}
}

func TestLoadParamsRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("iterations = -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadParams(path); err == nil || !strings.Contains(err.Error(), "iterations") {
		t.Errorf("LoadParams error = %v, want iterations validation failure", err)
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
