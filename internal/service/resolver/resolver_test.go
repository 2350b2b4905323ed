package resolver

import (
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

func newTestResolver(aliases map[string]string) *Resolver {
	logger, _ := zap.NewDevelopment()
	return New(aliases, logger)
}

func sampleState() domain.UiState {
	return domain.UiState{
		ActiveTab: "tab-home",
		Tabs: []domain.TabState{
			{ID: "tab-home", Label: "Home", Active: true},
			{ID: "tab-ai-features", Label: "AI Features"},
			{ID: "tab-settings", Label: "Settings"},
		},
		Buttons: []domain.ButtonState{
			{ID: "btn-save", Label: "Save"},
			{ID: "btn-save-draft", Label: "Save Draft"},
		},
		Inputs: []domain.InputState{
			{ID: "input-course-name", Label: "Course Name"},
		},
		Dropdowns: []domain.DropdownState{
			{ID: "dd-difficulty", Label: "Difficulty"},
		},
	}
}

func TestScore(t *testing.T) {
	cases := []struct {
		ref       string
		candidate string
		want      float64
	}{
		{"tab-home", "tab-home", 1.0},
		{"Tab Home", "tab-home", 1.0},
		{"TAB_HOME", "tab-home", 1.0},
		{"home", "tab-home", 0.9},
		{"tab-home-extra", "tab-home", 0.9},
		{"", "tab-home", 0},
		{"tab-home", "", 0},
		{"xyz", "tab-home", 0},
	}

	for _, tc := range cases {
		got := Score(tc.ref, tc.candidate)
		if got != tc.want {
			t.Errorf("Score(%q, %q) = %v, want %v", tc.ref, tc.candidate, got, tc.want)
		}
	}
}

func TestScore_SharedPrefix(t *testing.T) {
	// "tabhom" is contained in "tabhome", so the containment tier wins
	// before the prefix path is reached.
	got := Score("tab-hom", "tab-home")
	want := 0.9

	if got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}

	// No containment: "inputcoursename" vs "inputcoursedate" share
	// "inputcourse" (11 chars) over length 15.
	got = Score("input-course-name", "input-course-date")
	want = 0.5 + 0.4*float64(11)/float64(15)
	if got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestResolve_ExactBeatsContainment(t *testing.T) {
	r := newTestResolver(nil)

	id, ok := r.Resolve("btn-save", []string{"btn-save-draft", "btn-save"})
	if !ok {
		t.Fatal("expected a resolution")
	}
	if id != "btn-save" {
		t.Errorf("expected exact match 'btn-save', got %q", id)
	}
}

func TestResolve_TieGoesToFirstCandidate(t *testing.T) {
	r := newTestResolver(nil)

	// Both candidates contain the reference, so both score 0.9. The
	// earlier one must win, deterministically.
	for i := 0; i < 10; i++ {
		id, ok := r.Resolve("save", []string{"btn-save-draft", "btn-save"})
		if !ok {
			t.Fatal("expected a resolution")
		}
		if id != "btn-save-draft" {
			t.Fatalf("expected first candidate 'btn-save-draft', got %q", id)
		}
	}
}

func TestResolve_BelowThreshold(t *testing.T) {
	r := newTestResolver(nil)

	if id, ok := r.Resolve("completely unrelated", []string{"tab-home", "tab-settings"}); ok {
		t.Errorf("expected no resolution, got %q", id)
	}
}

func TestResolveTab_AliasBeforeFuzzy(t *testing.T) {
	r := newTestResolver(nil)
	state := sampleState()

	cases := map[string]string{
		"aifeatures":  "tab-ai-features",
		"AI Features": "tab-ai-features",
		"ai":          "tab-ai-features",
		"home":        "tab-home",
		"Settings":    "tab-settings",
	}

	for ref, want := range cases {
		if got := r.ResolveTab(ref, state); got != want {
			t.Errorf("ResolveTab(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestResolveTab_HostAliasOverridesDefault(t *testing.T) {
	r := newTestResolver(map[string]string{"home": "tab-dashboard"})

	got := r.ResolveTab("home", domain.UiState{})
	if got != "tab-dashboard" {
		t.Errorf("expected host alias 'tab-dashboard', got %q", got)
	}
}

func TestResolveTab_RawPassthrough(t *testing.T) {
	r := newTestResolver(nil)

	// Unresolvable references come back verbatim so the host surfaces
	// the failure instead of the resolver guessing.
	got := r.ResolveTab("zzz", sampleState())
	if got != "zzz" {
		t.Errorf("expected raw passthrough 'zzz', got %q", got)
	}
}

func TestResolveElements(t *testing.T) {
	r := newTestResolver(nil)
	state := sampleState()

	if got := r.ResolveButton("save", state); got != "btn-save" {
		t.Errorf("ResolveButton = %q, want 'btn-save'", got)
	}
	if got := r.ResolveInput("course name", state); got != "input-course-name" {
		t.Errorf("ResolveInput = %q, want 'input-course-name'", got)
	}
	if got := r.ResolveDropdown("difficulty", state); got != "dd-difficulty" {
		t.Errorf("ResolveDropdown = %q, want 'dd-difficulty'", got)
	}
	if got := r.ResolveButton("nonexistent", state); got != "nonexistent" {
		t.Errorf("expected raw passthrough, got %q", got)
	}
}
