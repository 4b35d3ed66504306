// Package lottery implements the Lootery core: a host-agnostic round state
// machine coordinating ticket sales, externally-sourced randomness, prize
// computation, and claim accounting over discrete, time-bounded rounds.
//
// The package has no knowledge of consensus, persistence, or transport; it
// is a pure function from (State, operation inputs, now) to (State,
// events, error), following spec.md §9's delegation-over-inheritance
// design: callers inject a ValueLedger, a TicketRegistry, and a
// RandomnessOracle rather than the core embedding any of them.
package lottery

import (
	"fmt"

	"github.com/lootopgf/lootery-go/internal/pickset"
)

// Config holds the immutable-after-init parameters of one lottery.
type Config struct {
	NumPicks            uint8  `json:"numPicks"`
	MaxBallValue        uint8  `json:"maxBallValue"`
	GamePeriod          int64  `json:"gamePeriod"`          // seconds
	TicketPrice         uint64 `json:"ticketPrice"`
	CommunityFeeBps     uint16 `json:"communityFeeBps"`     // 0-10000
	SeedJackpotDelay    int64  `json:"seedJackpotDelay"`    // seconds
	SeedJackpotMinValue uint64 `json:"seedJackpotMinValue"`
	Owner               string `json:"owner"`
	Oracle              string `json:"oracle"`
	ValueLedger         string `json:"valueLedger"`
	TicketRenderer      string `json:"ticketRenderer"`

	// OracleCallbackGas is the gas budget requested alongside each
	// randomness request. spec.md §9 flags the source's hardcoded
	// 500_000 gas estimate as host-specific; here it is a config field
	// instead of a package constant.
	OracleCallbackGas uint64 `json:"oracleCallbackGas"`
}

// Validate checks the one-shot configuration invariants spec.md §3 and §6
// (init) require.
func (c Config) Validate() error {
	if c.NumPicks < 1 {
		return newError(ErrInvalidNumPicks, "numPicks must be >= 1, got %d", c.NumPicks)
	}
	if c.MaxBallValue == 0 || c.MaxBallValue > pickset.MaxBallValue {
		return newError(ErrInvalidBallValue, "maxBallValue must be in [1,%d], got %d", pickset.MaxBallValue, c.MaxBallValue)
	}
	if c.NumPicks > c.MaxBallValue {
		return newError(ErrInvalidNumPicks, "numPicks %d exceeds maxBallValue %d", c.NumPicks, c.MaxBallValue)
	}
	if c.GamePeriod < 600 {
		return newError(ErrInvalidGamePeriod, "gamePeriod must be >= 600s, got %d", c.GamePeriod)
	}
	if c.TicketPrice == 0 {
		return newError(ErrInvalidTicketPrice, "ticketPrice must be positive")
	}
	if c.CommunityFeeBps > 10000 {
		return newError(ErrInvalidTicketPrice, "communityFeeBps must be in [0,10000], got %d", c.CommunityFeeBps)
	}
	if c.SeedJackpotDelay <= 0 {
		return newError(ErrInsufficientJackpotSeed, "seedJackpotDelay must be positive")
	}
	if c.SeedJackpotMinValue == 0 {
		return newError(ErrInsufficientJackpotSeed, "seedJackpotMinValue must be positive")
	}
	if c.OracleCallbackGas == 0 {
		return newError(ErrInvalidTicketPrice, "oracleCallbackGas must be positive")
	}
	return nil
}

// Phase is one of the two states of the round state machine.
type Phase int

const (
	PhasePurchase Phase = iota
	PhaseDrawPending
)

func (p Phase) String() string {
	switch p {
	case PhasePurchase:
		return "Purchase"
	case PhaseDrawPending:
		return "DrawPending"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// CurrentGame names the active round and machine phase.
type CurrentGame struct {
	Phase Phase  `json:"phase"`
	ID    uint64 `json:"id"`
}

// Round is the per-round ledger record: spec.md §3's "Round" table.
type Round struct {
	TicketsSold   uint64     `json:"ticketsSold"`
	StartedAt     int64      `json:"startedAt"`
	WinningPickID pickset.ID `json:"winningPickId"`
}

// Ticket is a minted ticket's lottery-relevant state: spec.md §3's
// "Ticket" table. Ownership itself lives in the external TicketRegistry.
type Ticket struct {
	GameID uint64     `json:"gameId"`
	PickID pickset.ID `json:"pickId"`
}

// RandomnessRequest is the single in-flight request slot.
type RandomnessRequest struct {
	RequestID uint64 `json:"requestId"`
	IssuedAt  int64  `json:"issuedAt"`
}

// Active reports whether a request is outstanding (requestId != 0, per
// spec.md §3's "zeroed when consumed").
func (r RandomnessRequest) Active() bool {
	return r.RequestID != 0
}

// roundIndexKey builds the string key for the (gameId, pickId) -> ticket
// ids index. A plain string key keeps the table encoding/json-friendly,
// mirroring the teacher's own preference for simple scalar/string-keyed
// maps over custom marshaling.
func roundIndexKey(gameID uint64, pickID pickset.ID) string {
	return fmt.Sprintf("%d:%s", gameID, pickID)
}

// State is the full persisted data model of one lottery: spec.md §3's
// three parallel tables (Round, Ticket, round index) plus the scalar
// accounting and machine state. It holds no object-graph cycles.
type State struct {
	Config Config `json:"config"`

	CurrentGame CurrentGame `json:"currentGame"`

	Rounds map[uint64]*Round `json:"rounds"`

	Tickets      map[uint64]*Ticket `json:"tickets"`
	NextTicketID uint64             `json:"nextTicketId"`

	// RoundIndex maps roundIndexKey(gameId, pickId) -> sorted ticket ids.
	RoundIndex map[string][]uint64 `json:"roundIndex"`

	Randomness RandomnessRequest `json:"randomness"`

	Jackpot              uint64 `json:"jackpot"`
	UnclaimedPayouts     uint64 `json:"unclaimedPayouts"`
	AccruedCommunityFees uint64 `json:"accruedCommunityFees"`

	ApocalypseGameID uint64 `json:"apocalypseGameId"`

	LastSeededAt int64 `json:"lastSeededAt"`
}

// Active reports whether writes are still accepted: spec.md §3's
// apocalypseGameId semantics (0 = active; id >= apocalypseGameId closes
// writes once the terminal round completes).
func (s *State) Active() bool {
	return s.ApocalypseGameID == 0 || s.CurrentGame.ID < s.ApocalypseGameID
}

// NewState builds the genesis state for a validated config: round 0 open
// for purchase, starting now.
func NewState(cfg Config, now int64) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &State{
		Config:      cfg,
		CurrentGame: CurrentGame{Phase: PhasePurchase, ID: 0},
		Rounds: map[uint64]*Round{
			0: {StartedAt: now},
		},
		Tickets:    map[uint64]*Ticket{},
		RoundIndex: map[string][]uint64{},
	}
	return s, nil
}

// round returns the Round record for id, creating it lazily is never
// valid: callers must only ever reference rounds created by NewState or
// the finalisation routine.
func (s *State) round(id uint64) (*Round, error) {
	r, ok := s.Rounds[id]
	if !ok {
		return nil, newError(ErrUnexpectedState, "round %d does not exist", id)
	}
	return r, nil
}
