package domain

import (
	"encoding/json"
)

// TabState describes one tab in the host interface.
type TabState struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Active   bool   `json:"active"`
	Disabled bool   `json:"disabled"`
}

type ButtonState struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

type InputState struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// DropdownOption is one entry of a dropdown. Index is zero-based and
// stable for the lifetime of the snapshot that carries it.
type DropdownOption struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

type DropdownState struct {
	ID            string           `json:"id"`
	Label         string           `json:"label"`
	SelectedValue string           `json:"selected_value"`
	Options       []DropdownOption `json:"options"`
}

// UiState is a compact, serializable snapshot of the interactive
// inventory the host application has registered: current route, tabs,
// buttons, inputs, dropdowns and the open modal (empty when none).
// It is a read-only projection; the host rendering layer owns the
// underlying elements.
type UiState struct {
	Route     string          `json:"route"`
	ActiveTab string          `json:"active_tab,omitempty"`
	Tabs      []TabState      `json:"tabs,omitempty"`
	Buttons   []ButtonState   `json:"buttons,omitempty"`
	Inputs    []InputState    `json:"inputs,omitempty"`
	Dropdowns []DropdownState `json:"dropdowns,omitempty"`
	Modal     string          `json:"modal,omitempty"`
}

// Signature returns a stable serialization of the snapshot. Two
// snapshots with equal signatures are treated as unchanged by the
// scheduler's change suppression.
func (s UiState) Signature() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(data)
}

// FindTab returns the tab with the given id.
func (s UiState) FindTab(id string) (TabState, bool) {
	for _, t := range s.Tabs {
		if t.ID == id {
			return t, true
		}
	}
	return TabState{}, false
}

// FindInput returns the input with the given id.
func (s UiState) FindInput(id string) (InputState, bool) {
	for _, in := range s.Inputs {
		if in.ID == id {
			return in, true
		}
	}
	return InputState{}, false
}

// FindDropdown returns the dropdown with the given id.
func (s UiState) FindDropdown(id string) (DropdownState, bool) {
	for _, d := range s.Dropdowns {
		if d.ID == id {
			return d, true
		}
	}
	return DropdownState{}, false
}

// TabIDs lists the tab identifiers in snapshot order.
func (s UiState) TabIDs() []string {
	ids := make([]string, 0, len(s.Tabs))
	for _, t := range s.Tabs {
		ids = append(ids, t.ID)
	}
	return ids
}

// ButtonIDs lists the button identifiers in snapshot order.
func (s UiState) ButtonIDs() []string {
	ids := make([]string, 0, len(s.Buttons))
	for _, b := range s.Buttons {
		ids = append(ids, b.ID)
	}
	return ids
}

// InputIDs lists the input identifiers in snapshot order.
func (s UiState) InputIDs() []string {
	ids := make([]string, 0, len(s.Inputs))
	for _, in := range s.Inputs {
		ids = append(ids, in.ID)
	}
	return ids
}

// DropdownIDs lists the dropdown identifiers in snapshot order.
func (s UiState) DropdownIDs() []string {
	ids := make([]string, 0, len(s.Dropdowns))
	for _, d := range s.Dropdowns {
		ids = append(ids, d.ID)
	}
	return ids
}

// Clone returns a deep copy so callers can hold a snapshot without
// racing against registry updates.
func (s UiState) Clone() UiState {
	out := s
	out.Tabs = append([]TabState(nil), s.Tabs...)
	out.Buttons = append([]ButtonState(nil), s.Buttons...)
	out.Inputs = append([]InputState(nil), s.Inputs...)
	out.Dropdowns = make([]DropdownState, len(s.Dropdowns))
	for i, d := range s.Dropdowns {
		dd := d
		dd.Options = append([]DropdownOption(nil), d.Options...)
		out.Dropdowns[i] = dd
	}
	return out
}
