package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func contains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func TestValidateRuleset_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "duel.json", `{
		"name": "duel",
		"description": "Tiny board",
		"width": 4,
		"height": 4,
		"fleet": [
			{"name": "cruiser", "length": 3},
			{"name": "patrol", "length": 2}
		]
	}`)

	result := validateRuleset(path)
	if !result.Valid {
		t.Fatalf("Expected valid ruleset, but got errors: %v", result.Errors)
	}
	if result.File != "duel.json" {
		t.Errorf("Expected file name duel.json, got %s", result.File)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	for _, want := range []string{"Board: 4x4", "Fleet: 2 ships, 5 cells", "Coverage: 31.2%"} {
		if !contains(result.Info, want) {
			t.Errorf("Expected info %q in %v", want, result.Info)
		}
	}
}

func TestValidateRuleset_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad json", `{"name": "x", invalid}`, "Invalid JSON"},
		{"no name", `{"width": 5, "height": 5, "fleet": [{"name": "a", "length": 2}]}`, "name is required"},
		{"zero width", `{"name": "x", "width": 0, "height": 5, "fleet": [{"name": "a", "length": 2}]}`, "width"},
		{"no fleet", `{"name": "x", "width": 5, "height": 5, "fleet": []}`, "at least one ship"},
		{"ship too long", `{"name": "x", "width": 5, "height": 5, "fleet": [{"name": "a", "length": 6}]}`, "length"},
		{"duplicate names", `{"name": "x", "width": 5, "height": 5, "fleet": [{"name": "a", "length": 2}, {"name": "a", "length": 3}]}`, "used twice"},
		{"too dense", `{"name": "x", "width": 4, "height": 4, "fleet": [{"name": "a", "length": 4}, {"name": "b", "length": 4}, {"name": "c", "length": 1}]}`, "at most half"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateRuleset(writeFile(t, dir, "x.json", tt.content))
			if result.Valid {
				t.Fatal("Expected invalid ruleset")
			}
			if !contains(result.Errors, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidateRuleset_MissingFile(t *testing.T) {
	result := validateRuleset("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !contains(result.Errors, "Failed to read file") {
		t.Errorf("Expected 'Failed to read file' error, got %v", result.Errors)
	}
}

func TestValidateRuleset_Warnings(t *testing.T) {
	path := writeFile(t, t.TempDir(), "renamed.json", `{
		"name": "original",
		"width": 5,
		"height": 5,
		"fleet": [{"name": "a", "length": 2}]
	}`)

	result := validateRuleset(path)
	if !result.Valid {
		t.Fatalf("Warnings must not invalidate the ruleset: %v", result.Errors)
	}
	if !contains(result.Warnings, `served as "renamed"`) {
		t.Errorf("Expected name mismatch warning, got %v", result.Warnings)
	}
	if !contains(result.Warnings, "Description is empty") {
		t.Errorf("Expected empty description warning, got %v", result.Warnings)
	}
}

func TestFleetFits(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		lengths []int
		fits    bool
	}{
		{"classic", 10, 10, []int{5, 4, 3, 3, 2}, true},
		{"exact rows", 3, 2, []int{3, 3}, true},
		{"exact columns", 2, 3, []int{3, 3}, true},
		{"crossing only", 3, 3, []int{3, 3, 3, 1}, false},
		{"too long", 3, 3, []int{4}, false},
		{"single cell", 1, 1, []int{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fits, decided := fleetFits(tt.w, tt.h, tt.lengths)
			if !decided {
				t.Fatal("Expected the search to finish")
			}
			if fits != tt.fits {
				t.Errorf("Expected fits=%v, got %v", tt.fits, fits)
			}
		})
	}
}

func TestShippedRulesets(t *testing.T) {
	files, err := collectFiles("../configs", nil)
	if err != nil {
		t.Fatalf("Failed to list shipped rulesets: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected shipped rulesets")
	}

	for _, file := range files {
		result := validateRuleset(file)
		if !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("%s: unexpected warnings %v", result.File, result.Warnings)
		}
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := collectFiles(dir, nil); err == nil {
		t.Error("Expected error for a directory without rulesets")
	}

	args := []string{"a.json", "b.json"}
	files, err := collectFiles(dir, args)
	if err != nil || len(files) != 2 {
		t.Errorf("Expected explicit files to be used, got %v, %v", files, err)
	}
}

func TestRun_ExitStatus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ok.json", `{"name": "ok", "description": "fine", "width": 5, "height": 5, "fleet": [{"name": "a", "length": 2}]}`)

	if err := newApp().Run(context.Background(), []string{"validate", "--dir", dir}); err != nil {
		t.Errorf("Expected success, got %v", err)
	}

	writeFile(t, dir, "broken.json", `{`)
	err := newApp().Run(context.Background(), []string{"validate", "--dir", dir})
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("Expected one invalid ruleset, got %v", err)
	}
}
