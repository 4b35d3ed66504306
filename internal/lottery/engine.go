package lottery

// randomnessRequestTTL is how long an in-flight randomness request must
// age before a fresh draw call is allowed to re-issue it, per spec.md
// §4.6/§4.3's "1 hour" timeout.
const randomnessRequestTTL = 3600

// randomnessRequestDeadline is the callback deadline handed to the
// oracle on each request, per spec.md §4.6.
const randomnessRequestDeadline = 30

// Engine runs the round state machine over a *State, delegating to the
// injected Collaborators for everything outside the core's scope:
// custody, ticket ownership, and randomness. It holds no state of its
// own beyond the pointer and the collaborators, so it is cheap to wrap
// per-transaction by a host.
type Engine struct {
	State         *State
	Collaborators Collaborators
}

// New wraps an existing State (typically loaded from persistence) with
// the collaborators to run it against.
func New(state *State, collaborators Collaborators) *Engine {
	return &Engine{State: state, Collaborators: collaborators}
}

// Init constructs a fresh Engine over genesis state for cfg, pulling in
// the collaborators that will serve every later operation.
func Init(cfg Config, now int64, collaborators Collaborators) (*Engine, error) {
	state, err := NewState(cfg, now)
	if err != nil {
		return nil, err
	}
	return New(state, collaborators), nil
}

func (e *Engine) requireActive() error {
	if !e.State.Active() {
		return newError(ErrGameInactive, "lottery has reached its apocalypse round %d", e.State.ApocalypseGameID)
	}
	return nil
}

func (e *Engine) requirePurchasePhase() error {
	if e.State.CurrentGame.Phase != PhasePurchase {
		return newError(ErrUnexpectedState, "expected phase Purchase, got %s", e.State.CurrentGame.Phase)
	}
	return nil
}

func (e *Engine) requireOwner(caller string) error {
	if caller != e.State.Config.Owner {
		return newError(ErrNotOwner, "caller %q is not the owner", caller)
	}
	return nil
}

func (e *Engine) requireOracle(caller string) error {
	if caller != e.State.Config.Oracle {
		return newError(ErrCallerNotRandomiser, "caller %q is not the configured oracle", caller)
	}
	return nil
}

// currentRound is a convenience accessor for the round matching
// CurrentGame.ID.
func (e *Engine) currentRound() (*Round, error) {
	return e.State.round(e.State.CurrentGame.ID)
}
