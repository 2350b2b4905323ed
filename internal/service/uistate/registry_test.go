package uistate

import (
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

func newTestRegistry() *Registry {
	logger, _ := zap.NewDevelopment()
	return NewRegistry(logger)
}

func TestRegistry_UpdateAndRead(t *testing.T) {
	r := newTestRegistry()

	r.Update(domain.UiState{
		Route:     "/courses",
		ActiveTab: "tab-home",
		Tabs:      []domain.TabState{{ID: "tab-home", Active: true}},
	})

	got := r.CompactUiState()
	if got.Route != "/courses" {
		t.Errorf("expected route '/courses', got %q", got.Route)
	}
	if got.ActiveTab != "tab-home" {
		t.Errorf("expected active tab 'tab-home', got %q", got.ActiveTab)
	}
}

func TestRegistry_SignatureStableAcrossReads(t *testing.T) {
	r := newTestRegistry()
	r.Update(domain.UiState{
		Route: "/",
		Tabs:  []domain.TabState{{ID: "tab-home", Label: "Home", Active: true}},
		Inputs: []domain.InputState{
			{ID: "input-notes", Label: "Notes", Value: "abc"},
		},
	})

	first := r.CompactUiState().Signature()
	second := r.CompactUiState().Signature()
	if first != second {
		t.Error("repeated reads with no update must produce equal signatures")
	}

	r.Update(domain.UiState{Route: "/settings"})
	third := r.CompactUiState().Signature()
	if third == first {
		t.Error("expected signature to change after update")
	}
}

func TestRegistry_ReadIsACopy(t *testing.T) {
	r := newTestRegistry()
	r.Update(domain.UiState{
		Tabs: []domain.TabState{{ID: "tab-home", Active: true}},
	})

	snapshot := r.CompactUiState()
	snapshot.Tabs[0].ID = "mutated"

	if r.CompactUiState().Tabs[0].ID != "tab-home" {
		t.Error("mutating a returned snapshot must not affect the registry")
	}
}

func TestRegistry_OnChangeFiresPerUpdate(t *testing.T) {
	r := newTestRegistry()
	calls := 0
	r.OnChange(func() { calls++ })

	r.Update(domain.UiState{Route: "/"})
	r.Update(domain.UiState{Route: "/courses"})

	if calls != 2 {
		t.Errorf("expected 2 change callbacks, got %d", calls)
	}
}
