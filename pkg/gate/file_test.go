package gate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCriteriaFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "criteria.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write criteria file: %v", err)
	}
	return path
}

func TestLoadCriteriaFileEmptyPath(t *testing.T) {
	criteria, err := LoadCriteriaFile("")
	if err != nil {
		t.Fatalf("LoadCriteriaFile(\"\") error: %v", err)
	}
	if len(criteria) != len(Defaults()) {
		t.Errorf("got %d criteria, want defaults (%d)", len(criteria), len(Defaults()))
	}
}

func TestLoadCriteriaFileAppendsCustom(t *testing.T) {
	path := writeCriteriaFile(t, `
[[criterion]]
name = "team_convention"
weight = 0.5
patterns = ['(?i)\bteam convention\b']
`)
	criteria, err := LoadCriteriaFile(path)
	if err != nil {
		t.Fatalf("LoadCriteriaFile: %v", err)
	}
	if len(criteria) != len(Defaults())+1 {
		t.Fatalf("got %d criteria, want defaults plus one", len(criteria))
	}

	res := Evaluate("Team convention: squash commits before merging", Config{Criteria: criteria})
	if !res.Passed {
		t.Fatalf("custom criterion content rejected: %+v", res)
	}
	if !criterionMatched(res, "team_convention") {
		t.Errorf("team_convention not matched: %+v", res.Criteria)
	}
}

func TestLoadCriteriaFileDefaultWeight(t *testing.T) {
	path := writeCriteriaFile(t, `
[[criterion]]
name = "retro_item"
patterns = ['(?i)\bretro\b']
`)
	criteria, err := LoadCriteriaFile(path)
	if err != nil {
		t.Fatalf("LoadCriteriaFile: %v", err)
	}
	last := criteria[len(criteria)-1]
	if last.Weight != defaultCustomWeight {
		t.Errorf("weight = %v, want default %v", last.Weight, defaultCustomWeight)
	}
}

func TestLoadCriteriaFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "invalid regex",
			body:    "[[criterion]]\nname = \"broken\"\npatterns = ['[']\n",
			wantErr: "compile pattern",
		},
		{
			name:    "missing name",
			body:    "[[criterion]]\npatterns = ['x']\n",
			wantErr: "has no name",
		},
		{
			name:    "missing patterns",
			body:    "[[criterion]]\nname = \"empty\"\n",
			wantErr: "has no patterns",
		},
		{
			name:    "not toml",
			body:    "{\"criterion\": []}",
			wantErr: "parse criteria file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCriteriaFile(t, tt.body)
			if _, err := LoadCriteriaFile(path); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadCriteriaFileMissingFile(t *testing.T) {
	if _, err := LoadCriteriaFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file did not error")
	}
}
