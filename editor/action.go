package editor

type (
	// Action is an operation on the model that a key, a menu entry or a
	// command line can trigger with Do. A disabled action does nothing when
	// done; the doer decides this by implementing Enabler, otherwise the
	// action is always enabled.
	Action struct {
		doer Doer
	}

	Doer interface {
		Do()
	}

	// Enabler reports whether an Action, Bool or similar value can
	// currently be changed.
	Enabler interface {
		Enabled() bool
	}

	DoFunc func()
)

func MakeAction(doer Doer) Action {
	return Action{doer: doer}
}

// MakeEnabledAction is a helper for the common case of an action whose
// availability is decided by a separate function.
func MakeEnabledAction(doer Doer, enabled func() bool) Action {
	return Action{doer: enabledDoer{doer, enabled}}
}

func (a Action) Do() {
	if !a.Enabled() {
		return
	}
	a.doer.Do()
}

func (a Action) Enabled() bool {
	if a.doer == nil {
		return false
	}
	e, ok := a.doer.(Enabler)
	if !ok {
		return true
	}
	return e.Enabled()
}

func (d DoFunc) Do() { d() }

type enabledDoer struct {
	Doer
	enabled func() bool
}

func (e enabledDoer) Enabled() bool { return e.enabled() }
