package lottery

import "fmt"

// Kind enumerates the closed error taxonomy spec.md §7 requires: every
// operation failure is one of these, never a bare string.
type Kind int

const (
	// Validation
	ErrInvalidNumPicks Kind = iota
	ErrInvalidBallValue
	ErrUnsortedPicks
	ErrInvalidTicketPrice
	ErrInvalidGamePeriod
	ErrInsufficientJackpotSeed

	// State
	ErrUnexpectedState
	ErrGameInactive
	ErrWaitLonger
	ErrClaimWindowMissed

	// Randomness
	ErrRequestAlreadyInFlight
	ErrCallerNotRandomiser
	ErrRequestIDMismatch
	ErrInsufficientRandomWords

	// Accounting
	ErrInsufficientOperationalFunds
	ErrNoWin

	// Limits
	ErrRateLimited
	ErrTicketsSoldOverflow

	// Authorisation
	ErrNotOwner
)

var kindNames = map[Kind]string{
	ErrInvalidNumPicks:              "InvalidNumPicks",
	ErrInvalidBallValue:             "InvalidBallValue",
	ErrUnsortedPicks:                "UnsortedPicks",
	ErrInvalidTicketPrice:           "InvalidTicketPrice",
	ErrInvalidGamePeriod:            "InvalidGamePeriod",
	ErrInsufficientJackpotSeed:      "InsufficientJackpotSeed",
	ErrUnexpectedState:              "UnexpectedState",
	ErrGameInactive:                 "GameInactive",
	ErrWaitLonger:                   "WaitLonger",
	ErrClaimWindowMissed:            "ClaimWindowMissed",
	ErrRequestAlreadyInFlight:       "RequestAlreadyInFlight",
	ErrCallerNotRandomiser:          "CallerNotRandomiser",
	ErrRequestIDMismatch:            "RequestIdMismatch",
	ErrInsufficientRandomWords:      "InsufficientRandomWords",
	ErrInsufficientOperationalFunds: "InsufficientOperationalFunds",
	ErrNoWin:                        "NoWin",
	ErrRateLimited:                  "RateLimited",
	ErrTicketsSoldOverflow:          "TicketsSoldOverflow",
	ErrNotOwner:                     "NotOwner",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type the core ever returns. It carries a Kind
// for programmatic dispatch (e.g. mapping to an ABCI result code) plus a
// human-readable message with whatever diagnostic data (expected vs
// actual state, deadlines, request ids) the failing check had on hand.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// IsKind reports whether err is itself a *Error of kind k. It does not
// look through wrapping; for a wrapped error, callers use
// errors.As(err, &lotteryErr) and inspect Kind directly.
func IsKind(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
