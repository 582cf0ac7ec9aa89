package correct

import "testing"

func TestTokenSetDropsShortTokens(t *testing.T) {
	set := tokenSet("The deadline is April 1, OK?")

	for _, w := range []string{"the", "deadline", "april"} {
		if _, ok := set[w]; !ok {
			t.Errorf("token %q missing from set %v", w, set)
		}
	}
	for _, w := range []string{"is", "1", "ok"} {
		if _, ok := set[w]; ok {
			t.Errorf("short token %q should have been dropped", w)
		}
	}
}

func TestTokenSetTrimsPunctuation(t *testing.T) {
	set := tokenSet("deadline: (April) 'first'")
	for _, w := range []string{"deadline", "april", "first"} {
		if _, ok := set[w]; !ok {
			t.Errorf("token %q missing from set %v", w, set)
		}
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name    string
		probe   string
		content string
		want    float64
	}{
		{"identical", "deadline april first", "deadline april first", 1},
		{"empty probe", "", "deadline april", 0},
		{"full containment", "deadline april", "the deadline moved to april for the client", 1},
		{"half", "deadline review", "the deadline moved", 0.5},
		{"disjoint", "cats meowing", "the deadline moved", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := overlap(tokenSet(tt.probe), tokenSet(tt.content))
			if got != tt.want {
				t.Errorf("overlap = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatcherSubstring(t *testing.T) {
	m := newMatcher("deadline is April 1", 0)
	if !m.matches("Project   DEADLINE is april 1 for the auth rewrite") {
		t.Error("normalized substring should match despite case and spacing")
	}
}

func TestMatcherFuzzyParaphrase(t *testing.T) {
	m := newMatcher("the deadline is April 1", 0)
	// Not a substring, but every meaningful fragment token appears.
	if !m.matches("deadline April 1 confirmed with the client") {
		t.Error("paraphrase with full token overlap should match")
	}
}

func TestMatcherRejectsUnrelated(t *testing.T) {
	m := newMatcher("the deadline is April 1", 0)
	for _, content := range []string{
		"cats are wonderful pets",
		"the cats meowed all night",
		"",
	} {
		if m.matches(content) {
			t.Errorf("unrelated content %q matched", content)
		}
	}
}

func TestMatcherThresholdConfigurable(t *testing.T) {
	// Two of the fragment's three tokens appear: overlap 0.67.
	content := "the review deadline moved"

	loose := newMatcher("the deadline is April 1", 0.6)
	if !loose.matches(content) {
		t.Error("0.67 overlap should pass a 0.6 threshold")
	}
	strict := newMatcher("the deadline is April 1", 0.9)
	if strict.matches(content) {
		t.Error("0.67 overlap should fail a 0.9 threshold")
	}
}

func TestNewMatcherInvalidThresholdUsesDefault(t *testing.T) {
	for _, th := range []float64{0, -0.5, 1.5} {
		m := newMatcher("anything at all", th)
		if m.threshold != DefaultSimilarity {
			t.Errorf("threshold %v: got %v, want default %v", th, m.threshold, DefaultSimilarity)
		}
	}
}

func TestMatcherEmptyFragmentMatchesNothing(t *testing.T) {
	m := newMatcher("   ", 0)
	if m.matches("any stored content") {
		t.Error("empty fragment must never match")
	}
}
