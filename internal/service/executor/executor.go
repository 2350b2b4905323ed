package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/observability/telemetry"
	"github.com/seu-repo/voicebridge/internal/ports"
	"github.com/seu-repo/voicebridge/internal/service/resolver"
)

// Config bounds the verification sampling loop. The host applies
// actions asynchronously, so the executor polls the snapshot until the
// expected change shows up or the deadline passes instead of trusting
// a single one-tick sample.
type Config struct {
	VerifyPollInterval time.Duration
	VerifyTimeout      time.Duration
}

func (c *Config) applyDefaults() {
	if c.VerifyPollInterval <= 0 {
		c.VerifyPollInterval = 50 * time.Millisecond
	}
	if c.VerifyTimeout <= 0 {
		c.VerifyTimeout = 750 * time.Millisecond
	}
}

// Executor applies validated actions to the host UI and verifies the
// effect by diffing before/after snapshots. It never mutates UI state
// itself; mutation is requested through the dispatcher callback and
// the event bus broadcast, both invoked for every action.
type Executor struct {
	provider   ports.UIStateProvider
	dispatcher ports.ActionDispatcher
	bus        ports.EventBus
	resolver   *resolver.Resolver
	cfg        Config
	log        *zap.Logger
}

func New(
	provider ports.UIStateProvider,
	dispatcher ports.ActionDispatcher,
	bus ports.EventBus,
	res *resolver.Resolver,
	cfg Config,
	log *zap.Logger,
) *Executor {
	cfg.applyDefaults()
	return &Executor{
		provider:   provider,
		dispatcher: dispatcher,
		bus:        bus,
		resolver:   res,
		cfg:        cfg,
		log:        log,
	}
}

// Execute dispatches one action and reports the verified outcome. The
// result is always returned, never an error: no-effect and unexpected
// outcomes are structured failures, not exceptions.
func (e *Executor) Execute(ctx context.Context, action domain.VoiceAction) domain.ExecutionResult {
	start := time.Now()
	before := e.provider.CompactUiState()

	resolved := e.resolveTargets(action, before)

	if err := e.dispatch(resolved); err != nil {
		// The bus broadcast already went out; a dispatcher error still
		// surfaces as a failed result rather than aborting.
		e.log.Warn("direct dispatch callback failed",
			zap.String("correlation_id", resolved.CorrelationID),
			zap.Error(err),
		)
	}

	result := e.verify(ctx, resolved, before)
	result.Duration = time.Since(start)

	telemetry.VerificationOutcomes.WithLabelValues(string(action.Type), string(result.Outcome)).Inc()
	e.emitToast(result)

	e.log.Info("action executed",
		zap.String("type", string(action.Type)),
		zap.String("correlation_id", action.CorrelationID),
		zap.String("outcome", string(result.Outcome)),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// resolveTargets rewrites imprecise voice ids to live element ids from
// the pre-action snapshot. Unresolvable references pass through raw so
// the host fails visibly.
func (e *Executor) resolveTargets(action domain.VoiceAction, state domain.UiState) domain.VoiceAction {
	switch action.Type {
	case domain.ActionSwitchTab:
		action.Payload.VoiceID = e.resolver.ResolveTab(action.Payload.VoiceID, state)
	case domain.ActionClickButton:
		action.Payload.VoiceID = e.resolver.ResolveButton(action.Payload.VoiceID, state)
	case domain.ActionFillInput:
		action.Payload.VoiceID = e.resolver.ResolveInput(action.Payload.VoiceID, state)
	case domain.ActionSelectDropdown:
		action.Payload.VoiceID = e.resolver.ResolveDropdown(action.Payload.VoiceID, state)
		e.resolveDropdownIndex(&action, state)
	case domain.ActionSubmitForm:
		action.Payload.SubmitButtonVoiceID = e.resolver.ResolveButton(action.Payload.SubmitButtonVoiceID, state)
	}
	return action
}

// resolveDropdownIndex maps negative indices against the current
// options length, recomputed here at execution time so a stale
// snapshot can never skew "last".
func (e *Executor) resolveDropdownIndex(action *domain.VoiceAction, state domain.UiState) {
	if action.Payload.SelectionIndex == nil {
		return
	}
	dd, ok := state.FindDropdown(action.Payload.VoiceID)
	if !ok {
		return
	}
	idx := *action.Payload.SelectionIndex
	if idx < 0 {
		idx = len(dd.Options) + idx
	}
	if idx < 0 || idx >= len(dd.Options) {
		return
	}
	action.Payload.SelectionIndex = &idx
}

func (e *Executor) dispatch(action domain.VoiceAction) error {
	e.bus.PublishAction(domain.ActionEvent{
		Type:          action.Type,
		Payload:       action.Payload,
		CorrelationID: action.CorrelationID,
	})
	if e.dispatcher == nil {
		return nil
	}
	return e.dispatcher.Dispatch(action)
}

// verify polls the post-action snapshot until the expected change is
// observed or the deadline passes, then classifies the outcome.
func (e *Executor) verify(ctx context.Context, action domain.VoiceAction, before domain.UiState) domain.ExecutionResult {
	deadline := time.Now().Add(e.cfg.VerifyTimeout)
	var result domain.ExecutionResult
	for {
		after := e.provider.CompactUiState()
		result = e.classify(action, before, after)
		if result.Outcome == domain.OutcomeVerified {
			return result
		}
		if time.Now().After(deadline) {
			return result
		}
		select {
		case <-ctx.Done():
			return result
		case <-time.After(e.cfg.VerifyPollInterval):
		}
	}
}

func (e *Executor) classify(action domain.VoiceAction, before, after domain.UiState) domain.ExecutionResult {
	result := domain.ExecutionResult{
		CorrelationID: action.CorrelationID,
		ActionType:    action.Type,
	}

	switch action.Type {
	case domain.ActionSwitchTab:
		target := action.Payload.VoiceID
		result.Target = target
		result.Expected = target
		result.Observed = after.ActiveTab
		switch {
		case after.ActiveTab == target && tabActive(after, target):
			result.Outcome = domain.OutcomeVerified
			result.Message = fmt.Sprintf("Switched to tab %q", target)
		case after.ActiveTab == before.ActiveTab:
			result.Outcome = domain.OutcomeNoEffect
			result.Message = fmt.Sprintf("Tab %q did not activate", target)
		default:
			result.Outcome = domain.OutcomeUnexpected
			result.Message = fmt.Sprintf("Expected tab %q, got %q", target, after.ActiveTab)
		}

	case domain.ActionFillInput:
		target := action.Payload.VoiceID
		result.Target = target
		beforeInput, _ := before.FindInput(target)
		afterInput, ok := after.FindInput(target)
		expected := action.Payload.Content
		if action.Payload.Append {
			expected = beforeInput.Value + action.Payload.Content
		}
		result.Expected = expected
		result.Observed = afterInput.Value
		switch {
		case ok && afterInput.Value == expected:
			result.Outcome = domain.OutcomeVerified
			result.Message = fmt.Sprintf("Updated input %q", target)
		case !ok || afterInput.Value == beforeInput.Value:
			result.Outcome = domain.OutcomeNoEffect
			result.Message = fmt.Sprintf("Input %q did not change", target)
		default:
			result.Outcome = domain.OutcomeUnexpected
			result.Message = fmt.Sprintf("Input %q changed to an unexpected value", target)
		}

	case domain.ActionSelectDropdown:
		target := action.Payload.VoiceID
		result.Target = target
		beforeDD, _ := before.FindDropdown(target)
		afterDD, ok := after.FindDropdown(target)
		expected := e.expectedSelection(action, beforeDD)
		result.Expected = expected
		result.Observed = afterDD.SelectedValue
		switch {
		case ok && afterDD.SelectedValue == expected:
			result.Outcome = domain.OutcomeVerified
			result.Message = fmt.Sprintf("Selected %q in %q", expected, target)
		case !ok || afterDD.SelectedValue == beforeDD.SelectedValue:
			result.Outcome = domain.OutcomeNoEffect
			result.Message = fmt.Sprintf("Dropdown %q selection did not change", target)
		default:
			result.Outcome = domain.OutcomeUnexpected
			result.Message = fmt.Sprintf("Dropdown %q selected %q, expected %q", target, afterDD.SelectedValue, expected)
		}

	case domain.ActionNavigate:
		result.Target = action.Payload.Route
		result.Expected = action.Payload.Route
		result.Observed = after.Route
		switch {
		case after.Route == action.Payload.Route:
			result.Outcome = domain.OutcomeVerified
			result.Message = fmt.Sprintf("Navigated to %s", after.Route)
		case after.Route == before.Route:
			result.Outcome = domain.OutcomeNoEffect
			result.Message = fmt.Sprintf("Navigation to %s had no effect", action.Payload.Route)
		default:
			result.Outcome = domain.OutcomeUnexpected
			result.Message = fmt.Sprintf("Expected route %s, got %s", action.Payload.Route, after.Route)
		}

	case domain.ActionClickButton, domain.ActionSubmitForm:
		// Button effects are host-defined, so any observable snapshot
		// change counts as confirmation.
		target := action.Payload.VoiceID
		if action.Type == domain.ActionSubmitForm {
			target = action.Payload.SubmitButtonVoiceID
		}
		result.Target = target
		if after.Signature() != before.Signature() {
			result.Outcome = domain.OutcomeVerified
			result.Message = fmt.Sprintf("Activated %q", target)
		} else {
			result.Outcome = domain.OutcomeNoEffect
			result.Message = fmt.Sprintf("Clicking %q produced no visible change", target)
		}

	case domain.ActionScroll:
		// Scroll position is not part of the compact snapshot; the
		// dispatch itself is the observable effect.
		result.Outcome = domain.OutcomeVerified
		result.Message = fmt.Sprintf("Scrolled %s", action.Payload.Direction)

	default:
		result.Outcome = domain.OutcomeNoEffect
		result.Message = fmt.Sprintf("Unknown action type %q", action.Type)
	}

	return result
}

// expectedSelection computes the value the dropdown should end up
// with: the explicit value, or the label at the (already normalized)
// index.
func (e *Executor) expectedSelection(action domain.VoiceAction, dd domain.DropdownState) string {
	if action.Payload.SelectionValue != nil {
		return *action.Payload.SelectionValue
	}
	if action.Payload.SelectionIndex != nil {
		idx := *action.Payload.SelectionIndex
		if idx >= 0 && idx < len(dd.Options) {
			return dd.Options[idx].Label
		}
	}
	return ""
}

func (e *Executor) emitToast(result domain.ExecutionResult) {
	toast := domain.ToastEvent{
		Message:  result.Message,
		Type:     domain.ToastSuccess,
		Duration: 4 * time.Second,
	}
	if !result.Succeeded() {
		toast.Type = domain.ToastError
	}
	e.bus.PublishToast(toast)
}

func tabActive(state domain.UiState, id string) bool {
	t, ok := state.FindTab(id)
	return ok && t.Active
}
