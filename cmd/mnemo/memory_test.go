package main

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"mnemo/pkg/store"
)

// setupTestHome points every resolved path at a throwaway directory so
// each test runs against its own fresh store.
func setupTestHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("MNEMO_HOME", tmp)
	t.Setenv("MNEMO_DB_PATH", "")
	t.Setenv("MNEMO_CONFIG", "")
	return tmp
}

// runCLI executes a fresh root command with the given args and returns
// the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var idPattern = regexp.MustCompile(`id=(\d+)`)

// parseID extracts the first "id=N" from command output.
func parseID(t *testing.T, output string) int64 {
	t.Helper()
	m := idPattern.FindStringSubmatch(output)
	if m == nil {
		t.Fatalf("no id in output: %q", output)
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		t.Fatalf("parse id %q: %v", m[1], err)
	}
	return id
}

func TestInitCommand(t *testing.T) {
	setupTestHome(t)

	t.Run("creates home and config", func(t *testing.T) {
		out, err := runCLI(t, "init")
		if err != nil {
			t.Fatalf("init: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Initialized mnemo home at") {
			t.Errorf("output missing init line: %q", out)
		}
		if !strings.Contains(out, "(created)") {
			t.Errorf("output missing created config note: %q", out)
		}
	})

	t.Run("second run keeps existing config", func(t *testing.T) {
		out, err := runCLI(t, "init")
		if err != nil {
			t.Fatalf("init: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "(kept)") {
			t.Errorf("output missing kept config note: %q", out)
		}
	})

	t.Run("force overwrites config", func(t *testing.T) {
		out, err := runCLI(t, "init", "--force")
		if err != nil {
			t.Fatalf("init --force: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "(overwritten)") {
			t.Errorf("output missing overwritten config note: %q", out)
		}
	})
}

func TestGateCommand(t *testing.T) {
	setupTestHome(t)

	t.Run("passes behavioral content", func(t *testing.T) {
		out, err := runCLI(t, "gate", "Always use feature branches, never commit to main")
		if err != nil {
			t.Fatalf("gate: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "PASS") {
			t.Errorf("output missing PASS: %q", out)
		}
		if !strings.Contains(out, "matched: behavioral_change") {
			t.Errorf("output missing matched criterion: %q", out)
		}
	})

	t.Run("rejects short content", func(t *testing.T) {
		out, err := runCLI(t, "gate", "ok")
		if err != nil {
			t.Fatalf("gate: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "REJECT: content shorter than minimum length 12") {
			t.Errorf("output missing length rejection: %q", out)
		}
	})

	t.Run("rejects noise", func(t *testing.T) {
		out, err := runCLI(t, "gate", "sounds good to me")
		if err != nil {
			t.Fatalf("gate: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "REJECT: classified as noise") {
			t.Errorf("output missing noise rejection: %q", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		out, err := runCLI(t, "gate", "--json", "Always use feature branches, never commit to main")
		if err != nil {
			t.Fatalf("gate --json: %v\noutput: %s", err, out)
		}
		var res struct {
			Passed bool    `json:"passed"`
			Score  float64 `json:"score"`
		}
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("unmarshal gate output: %v\noutput: %s", err, out)
		}
		if !res.Passed {
			t.Errorf("Passed = false, want true")
		}
		if res.Score < 0.3 {
			t.Errorf("Score = %v, want >= 0.3", res.Score)
		}
	})
}

func TestRememberCommand(t *testing.T) {
	setupTestHome(t)

	t.Run("stages gated content", func(t *testing.T) {
		out, err := runCLI(t, "remember", "Always use feature branches, never commit to main")
		if err != nil {
			t.Fatalf("remember: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Staged (id=") {
			t.Errorf("output missing staged line: %q", out)
		}
	})

	t.Run("rejection is not an error", func(t *testing.T) {
		out, err := runCLI(t, "remember", "sounds good to me")
		if err != nil {
			t.Fatalf("remember: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Rejected:") {
			t.Errorf("output missing rejection line: %q", out)
		}
	})

	t.Run("direct working write", func(t *testing.T) {
		out, err := runCLI(t, "remember", "--direct", "working", "--kind", "decision", "--importance", "7", "retry budget capped at three attempts")
		if err != nil {
			t.Fatalf("remember --direct working: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Remembered (tier=working, id=") {
			t.Errorf("output missing working confirmation: %q", out)
		}
	})

	t.Run("direct session write deduplicates", func(t *testing.T) {
		out, err := runCLI(t, "remember", "--direct", "session", "--session", "sess-1", "build cache warmed before the suite")
		if err != nil {
			t.Fatalf("remember --direct session: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Remembered (tier=session, session=sess-1") {
			t.Errorf("output missing session confirmation: %q", out)
		}

		out, err = runCLI(t, "remember", "--direct", "session", "--session", "sess-1", "build cache warmed before the suite")
		if err != nil {
			t.Fatalf("duplicate session write: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Already present (tier=session, session=sess-1") {
			t.Errorf("duplicate not absorbed: %q", out)
		}
	})

	t.Run("direct semantic write", func(t *testing.T) {
		out, err := runCLI(t, "remember", "--direct", "semantic", "--kind", "lesson", "integration tests need the fake clock")
		if err != nil {
			t.Fatalf("remember --direct semantic: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Remembered (tier=semantic, id=") {
			t.Errorf("output missing semantic confirmation: %q", out)
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		_, err := runCLI(t, "remember", "--direct", "archive", "some content worth keeping")
		if err == nil || !strings.Contains(err.Error(), "unknown tier") {
			t.Errorf("err = %v, want unknown tier", err)
		}
	})

	t.Run("agent flag requires direct working", func(t *testing.T) {
		_, err := runCLI(t, "remember", "--agent", "agent-a", "a note that would otherwise be staged")
		if err == nil || !strings.Contains(err.Error(), "--agent") {
			t.Errorf("err = %v, want --agent restriction", err)
		}
	})
}

func TestLogCommand(t *testing.T) {
	setupTestHome(t)

	t.Run("requires an initialized store", func(t *testing.T) {
		_, err := runCLI(t, "log")
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Errorf("err = %v, want not initialized", err)
		}
	})

	out, err := runCLI(t, "remember", "Always use feature branches, never commit to main")
	if err != nil {
		t.Fatalf("remember: %v\noutput: %s", err, out)
	}

	t.Run("lists today's entries", func(t *testing.T) {
		out, err := runCLI(t, "log")
		if err != nil {
			t.Fatalf("log: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "ID") || !strings.Contains(out, "PROMOTED") {
			t.Errorf("output missing table header: %q", out)
		}
		if !strings.Contains(out, "Always use feature branches") {
			t.Errorf("output missing staged content: %q", out)
		}
		if !strings.Contains(out, "observation") {
			t.Errorf("output missing default kind: %q", out)
		}
	})

	t.Run("unpromoted backlog", func(t *testing.T) {
		out, err := runCLI(t, "log", "--unpromoted")
		if err != nil {
			t.Fatalf("log --unpromoted: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Always use feature branches") {
			t.Errorf("backlog missing staged content: %q", out)
		}
	})

	t.Run("dates summary", func(t *testing.T) {
		out, err := runCLI(t, "log", "--dates")
		if err != nil {
			t.Fatalf("log --dates: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "DATE") || !strings.Contains(out, "ENTRIES") {
			t.Errorf("output missing dates header: %q", out)
		}
	})

	t.Run("empty day", func(t *testing.T) {
		out, err := runCLI(t, "log", "--date", "1999-01-01")
		if err != nil {
			t.Fatalf("log --date: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "No staging entries found.") {
			t.Errorf("output = %q, want empty notice", out)
		}
	})
}

func TestPromoteCommand(t *testing.T) {
	setupTestHome(t)

	// Session band: single criterion, score 0.35.
	out, err := runCLI(t, "remember", "Always use feature branches, never commit to main")
	if err != nil {
		t.Fatalf("remember: %v\noutput: %s", err, out)
	}
	// Working band: explicit request plus commitment plus clause bonus.
	out, err = runCLI(t, "remember", "Important: remember the deadline is Friday; we committed to shipping by end of week")
	if err != nil {
		t.Fatalf("remember: %v\noutput: %s", err, out)
	}

	t.Run("dry run lists candidates", func(t *testing.T) {
		out, err := runCLI(t, "promote", "--dry-run")
		if err != nil {
			t.Fatalf("promote --dry-run: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "candidate(s); run without --dry-run to promote.") {
			t.Errorf("output missing candidate summary: %q", out)
		}
		if !strings.Contains(out, "session") || !strings.Contains(out, "working") {
			t.Errorf("output missing suggested tiers: %q", out)
		}
	})

	t.Run("promotes into banded tiers", func(t *testing.T) {
		out, err := runCLI(t, "promote")
		if err != nil {
			t.Fatalf("promote: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "-> session") {
			t.Errorf("output missing session promotion: %q", out)
		}
		if !strings.Contains(out, "-> working") {
			t.Errorf("output missing working promotion: %q", out)
		}
		if !strings.Contains(out, "Promoted 2 entries (0 failed).") {
			t.Errorf("output missing summary: %q", out)
		}
	})

	t.Run("log records destinations", func(t *testing.T) {
		out, err := runCLI(t, "log")
		if err != nil {
			t.Fatalf("log: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "session") || !strings.Contains(out, "working") {
			t.Errorf("log missing promoted tiers: %q", out)
		}
	})

	t.Run("nothing left to promote", func(t *testing.T) {
		out, err := runCLI(t, "promote")
		if err != nil {
			t.Fatalf("promote: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "Nothing to promote.") {
			t.Errorf("output = %q, want nothing to promote", out)
		}
	})

	t.Run("min-score above all candidates", func(t *testing.T) {
		out, err := runCLI(t, "remember", "Always use feature branches, never commit to main")
		if err != nil {
			t.Fatalf("remember: %v\noutput: %s", err, out)
		}
		out, err = runCLI(t, "promote", "--dry-run", "--min-score", "0.9")
		if err != nil {
			t.Fatalf("promote --min-score: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "No promotion candidates.") {
			t.Errorf("output = %q, want no candidates", out)
		}
	})
}

func TestQueryCommand(t *testing.T) {
	setupTestHome(t)

	seed := [][]string{
		{"remember", "--direct", "working", "--kind", "decision", "deploy pipeline lives in the ci config"},
		{"remember", "--direct", "working", "--kind", "lesson", "flaky network tests need a retry budget"},
	}
	for _, args := range seed {
		if out, err := runCLI(t, args...); err != nil {
			t.Fatalf("seed %v: %v\noutput: %s", args, err, out)
		}
	}

	t.Run("plain format", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "plain", "deploy", "pipeline")
		if err != nil {
			t.Fatalf("query: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "1. [working]") {
			t.Errorf("output missing numbered tier line: %q", out)
		}
		if !strings.Contains(out, "deploy pipeline") {
			t.Errorf("output missing matched content: %q", out)
		}
		if !strings.Contains(out, "kind: decision") {
			t.Errorf("output missing kind detail: %q", out)
		}
	})

	t.Run("prompt format", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "prompt", "retry", "budget")
		if err != nil {
			t.Fatalf("query: %v\noutput: %s", err, out)
		}
		if !strings.HasPrefix(out, "Relevant memories:\n") {
			t.Errorf("output missing prompt header: %q", out)
		}
		if !strings.Contains(out, "[working/lesson]") {
			t.Errorf("output missing tier/kind tag: %q", out)
		}
	})

	t.Run("prompt format renders nothing on no matches", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "prompt", "zzzmissing")
		if err != nil {
			t.Fatalf("query: %v\noutput: %s", err, out)
		}
		if out != "" {
			t.Errorf("output = %q, want empty", out)
		}
	})

	t.Run("json format", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "json", "deploy")
		if err != nil {
			t.Fatalf("query --format json: %v\noutput: %s", err, out)
		}
		var hits []struct {
			Content string  `json:"content"`
			Tier    string  `json:"tier"`
			Score   float64 `json:"score"`
		}
		if err := json.Unmarshal([]byte(out), &hits); err != nil {
			t.Fatalf("unmarshal query output: %v\noutput: %s", err, out)
		}
		if len(hits) != 1 {
			t.Fatalf("len(hits) = %d, want 1", len(hits))
		}
		if hits[0].Tier != "working" || !strings.Contains(hits[0].Content, "deploy") {
			t.Errorf("hit = %+v, want working deploy row", hits[0])
		}
	})

	t.Run("kind filter", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "plain", "--kind", "lesson", "pipeline", "retry")
		if err != nil {
			t.Fatalf("query --kind: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "flaky network tests") {
			t.Errorf("output missing lesson row: %q", out)
		}
		if strings.Contains(out, "deploy pipeline") {
			t.Errorf("kind filter leaked decision row: %q", out)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		out, err := runCLI(t, "query", "--format", "plain", "zzzmissing")
		if err != nil {
			t.Fatalf("query: %v\noutput: %s", err, out)
		}
		if !strings.Contains(out, "No memories found.") {
			t.Errorf("output = %q, want no memories notice", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := runCLI(t, "query", "--format", "xml", "deploy")
		if err == nil || !strings.Contains(err.Error(), "unknown format") {
			t.Errorf("err = %v, want unknown format", err)
		}
	})
}

func TestFormatHitsPlain(t *testing.T) {
	if got := formatHitsPlain(nil); got != "No memories found.\n" {
		t.Errorf("empty = %q, want no memories notice", got)
	}

	hits := []hit{{
		Record: store.Record{
			ID:         3,
			Tier:       store.TierWorking,
			Content:    "retry budget capped at three attempts",
			Kind:       "decision",
			Importance: 7,
			CreatedAt:  "2026-03-01 09:30:00",
		},
		Score: -1.5,
	}}
	got := formatHitsPlain(hits)
	if !strings.Contains(got, "1. [working] retry budget capped at three attempts") {
		t.Errorf("missing headline: %q", got)
	}
	if !strings.Contains(got, "kind: decision | importance: 7") {
		t.Errorf("missing detail line: %q", got)
	}
	if !strings.Contains(got, "created: 2026-03-01") {
		t.Errorf("missing created date: %q", got)
	}
}

func TestFormatHitsPrompt(t *testing.T) {
	if got := formatHitsPrompt(nil); got != "" {
		t.Errorf("empty = %q, want empty string", got)
	}

	hits := []hit{
		{Record: store.Record{Tier: store.TierWorking, Kind: "decision", Content: "first"}},
		{Record: store.Record{Tier: store.TierSession, Kind: "observation", Content: "second"}},
	}
	got := formatHitsPrompt(hits)
	want := "Relevant memories:\n1. [working/decision] first\n2. [session/observation] second\n"
	if got != want {
		t.Errorf("formatHitsPrompt = %q, want %q", got, want)
	}
}

func TestTruncateContent(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this one is too long", 7, "this on..."},
	}
	for _, tt := range tests {
		if got := truncateContent(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateContent(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
