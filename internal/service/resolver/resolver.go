package resolver

import (
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// threshold is the minimum fuzzy score a candidate must exceed to be
// selected. Below it the resolver refuses to guess.
const threshold = 0.5

// defaultTabAliases maps common mis-transcriptions to canonical tab
// identifiers. Hosts merge their own table over these at startup.
var defaultTabAliases = map[string]string{
	"home":       "tab-home",
	"overview":   "tab-overview",
	"settings":   "tab-settings",
	"aifeatures": "tab-ai-features",
	"ai":         "tab-ai-features",
}

// Resolver maps imprecise spoken references onto concrete element
// identifiers from the current snapshot. Resolution is deterministic:
// the same input and candidate list always select the same candidate.
type Resolver struct {
	aliases map[string]string
	log     *zap.Logger
}

// New merges the host-supplied alias table over the built-in defaults.
func New(hostAliases map[string]string, log *zap.Logger) *Resolver {
	aliases := make(map[string]string, len(defaultTabAliases)+len(hostAliases))
	for k, v := range defaultTabAliases {
		aliases[normalize(k)] = v
	}
	for k, v := range hostAliases {
		aliases[normalize(k)] = v
	}
	return &Resolver{aliases: aliases, log: log}
}

// Resolve returns the best-matching candidate for ref, or false when
// no candidate clears the threshold. Ties go to the earliest candidate.
func (r *Resolver) Resolve(ref string, candidates []string) (string, bool) {
	if ref == "" || len(candidates) == 0 {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		s := Score(ref, c)
		if s > threshold && s > bestScore {
			best = c
			bestScore = s
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// ResolveTab applies the full resolution order for tab references:
// alias table first, then the fuzzy pass over live tab ids, finally
// the raw reference unchanged so the host fails visibly instead of
// the bridge guessing past its confidence.
func (r *Resolver) ResolveTab(ref string, state domain.UiState) string {
	if canonical, ok := r.aliases[normalize(ref)]; ok {
		return canonical
	}
	if id, ok := r.Resolve(ref, state.TabIDs()); ok {
		return id
	}
	r.log.Debug("tab reference unresolved, passing through raw",
		zap.String("ref", ref),
	)
	return ref
}

// ResolveButton resolves against live button ids, raw fallback.
func (r *Resolver) ResolveButton(ref string, state domain.UiState) string {
	if id, ok := r.Resolve(ref, state.ButtonIDs()); ok {
		return id
	}
	return ref
}

// ResolveInput resolves against live input ids, raw fallback.
func (r *Resolver) ResolveInput(ref string, state domain.UiState) string {
	if id, ok := r.Resolve(ref, state.InputIDs()); ok {
		return id
	}
	return ref
}

// ResolveDropdown resolves against live dropdown ids, raw fallback.
func (r *Resolver) ResolveDropdown(ref string, state domain.UiState) string {
	if id, ok := r.Resolve(ref, state.DropdownIDs()); ok {
		return id
	}
	return ref
}

// Score rates how well a spoken reference matches a candidate id.
// Exact normalized equality is 1.0, containment either way 0.9, and a
// shared prefix of at least 3 characters scales from 0.5 up by the
// matched fraction. Everything else is 0.
func Score(ref, candidate string) float64 {
	a := normalize(ref)
	b := normalize(candidate)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	if prefix >= 3 {
		longer := len(a)
		if len(b) > longer {
			longer = len(b)
		}
		return 0.5 + 0.4*float64(prefix)/float64(longer)
	}
	return 0
}

// normalize lower-cases and strips hyphens, underscores and whitespace
// so "AI Features", "ai-features" and "aifeatures" compare equal.
func normalize(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ', '\t', '\n':
			return -1
		}
		return r
	}, s)
}
