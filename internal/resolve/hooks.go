// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"cmdsh/pkg/types"
)

// HookOutcome tags what a lookup hook decided. Hooks return explicit
// outcomes rather than mutating shared state.
type HookOutcome int

const (
	// HookContinue lets the pipeline proceed as if the hook were absent.
	HookContinue HookOutcome = iota
	// HookResolved short-circuits with the hook's descriptor. From a
	// post-lookup hook a nil descriptor downgrades the outcome to a
	// not-found failure.
	HookResolved
	// HookStopFailure stops the pipeline with a not-found failure.
	HookStopFailure
)

// HookResult is the tagged result of a hook invocation.
type HookResult struct {
	Outcome    HookOutcome
	Descriptor *types.CommandDescriptor
}

// Hook is a user-registered lookup extension. Hooks receive the
// requested name and the lookup origin. A panicking hook is caught and
// treated as HookContinue; a misbehaving extension must not take down
// resolution.
type Hook func(name string, origin types.CommandOrigin) HookResult

// Continue is the neutral hook result.
func Continue() HookResult { return HookResult{Outcome: HookContinue} }

// Resolved short-circuits with desc.
func Resolved(desc *types.CommandDescriptor) HookResult {
	return HookResult{Outcome: HookResolved, Descriptor: desc}
}

// StopWithFailure stops the pipeline unsuccessfully.
func StopWithFailure() HookResult { return HookResult{Outcome: HookStopFailure} }

// SetPreLookupAction registers the hook run before any search. Passing
// nil clears it.
func (d *Discovery) SetPreLookupAction(h Hook) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.preLookup = h
}

// SetPostLookupAction registers the hook run unconditionally after a
// successful resolution; it may replace the result, including
// replacing it with nothing. Passing nil clears it.
func (d *Discovery) SetPostLookupAction(h Hook) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.postLookup = h
}

// SetNotFoundAction registers the hook run when every search phase has
// missed; it may supply a descriptor of last resort. Passing nil
// clears it.
func (d *Discovery) SetNotFoundAction(h Hook) {
	d.hookMu.Lock()
	defer d.hookMu.Unlock()
	d.notFound = h
}

func (d *Discovery) hook(which Phase) Hook {
	d.hookMu.RLock()
	defer d.hookMu.RUnlock()
	switch which {
	case PhasePreLookup:
		return d.preLookup
	case PhasePostCommand:
		return d.postLookup
	case PhaseCommandNotFound:
		return d.notFound
	default:
		return nil
	}
}

// runHook invokes a hook defensively: a panic is logged and treated as
// HookContinue so resolution survives misbehaving extensions.
func (d *Discovery) runHook(h Hook, name string, origin types.CommandOrigin) (result HookResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("lookup hook panicked", "command", name, "panic", r)
			result = Continue()
		}
	}()
	return h(name, origin)
}
