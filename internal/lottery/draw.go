package lottery

import (
	"context"
	"strings"

	"github.com/lootopgf/lootery-go/internal/feistel"
	"github.com/lootopgf/lootery-go/internal/pickset"
)

// Draw implements spec.md §4.6: either requests randomness and moves to
// DrawPending (the round advances later, in OnRandomness), skips the draw
// and advances the round when no tickets were sold, or re-issues a stale
// in-flight request.
func (e *Engine) Draw(ctx context.Context, now int64) ([]Event, error) {
	if err := e.requireActive(); err != nil {
		return nil, err
	}

	switch e.State.CurrentGame.Phase {
	case PhasePurchase:
		return e.drawFromPurchase(ctx, now)
	case PhaseDrawPending:
		return e.reissueRequest(ctx, now)
	default:
		return nil, newError(ErrUnexpectedState, "unknown phase %s", e.State.CurrentGame.Phase)
	}
}

func (e *Engine) drawFromPurchase(ctx context.Context, now int64) ([]Event, error) {
	round, err := e.currentRound()
	if err != nil {
		return nil, err
	}
	if now < round.StartedAt+e.State.Config.GamePeriod {
		return nil, newError(ErrWaitLonger, "round %d not over until %d, now %d", e.State.CurrentGame.ID, round.StartedAt+e.State.Config.GamePeriod, now)
	}

	if round.TicketsSold == 0 {
		return e.skipDraw(now)
	}
	return e.issueRequest(ctx, now)
}

// skipDraw implements the "no tickets sold" branch of spec.md §4.6: the
// finalisation routine's no-winner rollover runs but no randomness is
// requested and no winning set is ever recorded for the round.
func (e *Engine) skipDraw(now int64) ([]Event, error) {
	id := e.State.CurrentGame.ID
	rolloverEvent, err := e.finaliseRound(id, 0, now)
	if err != nil {
		return nil, err
	}
	return []Event{
		newEvent(EventDrawSkipped, map[string]string{"gameId": uitoa(id)}),
		rolloverEvent,
	}, nil
}

func (e *Engine) issueRequest(ctx context.Context, now int64) ([]Event, error) {
	cfg := e.State.Config
	price, err := e.Collaborators.Oracle.GetRequestPrice(ctx, cfg.OracleCallbackGas)
	if err != nil {
		return nil, err
	}
	balance, err := e.Collaborators.NativeBalance(ctx)
	if err != nil {
		return nil, err
	}
	if balance < price {
		return nil, newError(ErrInsufficientOperationalFunds, "native balance %d below oracle price %d", balance, price)
	}

	requestID, err := e.Collaborators.Oracle.RequestRandomness(ctx, now+randomnessRequestDeadline, cfg.OracleCallbackGas)
	if err != nil {
		return nil, err
	}

	e.State.Randomness = RandomnessRequest{RequestID: requestID, IssuedAt: now}
	e.State.CurrentGame.Phase = PhaseDrawPending
	return nil, nil
}

func (e *Engine) reissueRequest(ctx context.Context, now int64) ([]Event, error) {
	req := e.State.Randomness
	if !req.Active() {
		return nil, newError(ErrUnexpectedState, "DrawPending with no active randomness request")
	}
	if now < req.IssuedAt+randomnessRequestTTL {
		return nil, newError(ErrRequestAlreadyInFlight, "request %d issued at %d not yet stale", req.RequestID, req.IssuedAt)
	}
	return e.issueRequest(ctx, now)
}

// OnRandomness implements spec.md §4.7: the oracle's callback. It
// consumes the in-flight request, derives the winning balls from the
// first random word, and runs the finalisation routine.
func (e *Engine) OnRandomness(caller string, requestID uint64, words [][]byte, now int64) ([]Event, error) {
	if err := e.requireOracle(caller); err != nil {
		return nil, err
	}
	if e.State.CurrentGame.Phase != PhaseDrawPending {
		return nil, newError(ErrUnexpectedState, "expected phase DrawPending, got %s", e.State.CurrentGame.Phase)
	}
	if e.State.Randomness.RequestID != requestID {
		return nil, newError(ErrRequestIDMismatch, "expected request %d, got %d", e.State.Randomness.RequestID, requestID)
	}
	if len(words) == 0 || len(words[0]) == 0 {
		return nil, newError(ErrInsufficientRandomWords, "randomness callback requires at least one non-empty word")
	}

	id := e.State.CurrentGame.ID
	round, err := e.currentRound()
	if err != nil {
		return nil, err
	}

	e.State.Randomness = RandomnessRequest{}

	cfg := e.State.Config
	balls := feistel.DrawBalls(words[0], int(cfg.NumPicks), cfg.MaxBallValue)
	winningID := pickset.Encode(balls)
	round.WinningPickID = winningID

	winners := len(e.State.RoundIndex[roundIndexKey(id, winningID)])

	rolloverEvent, err := e.finaliseRound(id, winners, now)
	if err != nil {
		return nil, err
	}

	return []Event{
		newEvent(EventGameFinalised, map[string]string{
			"gameId": uitoa(id),
			"balls":  joinBalls(balls),
			"pickId": winningID.String(),
		}),
		rolloverEvent,
	}, nil
}

func joinBalls(balls []uint8) string {
	parts := make([]string, len(balls))
	for i, b := range balls {
		parts[i] = uitoa(uint64(b))
	}
	return strings.Join(parts, ",")
}

// finaliseRound implements spec.md §4.8: the jackpot/unclaimedPayouts
// rollover, then opens the next round. winners is the number of tickets
// matching the round's winning pick (0 for both "no tickets sold" and
// "tickets sold but nobody matched").
//
// When the round closing is the apocalypse terminal round, there is no
// live next round to roll a no-winner pot into, so the no-winner branch
// is superseded: the pot is still placed in unclaimedPayouts so the
// GLOSSARY's "no-winner case pays every buyer an equal consolation
// share" (the apocalypse consolation path of spec.md §4.9) has funds to
// pay from, the same way a round with winners always does.
func (e *Engine) finaliseRound(id uint64, winners int, now int64) (Event, error) {
	j, u := e.State.Jackpot, e.State.UnclaimedPayouts

	nextID := id + 1
	staysActive := e.State.ApocalypseGameID == 0 || nextID < e.State.ApocalypseGameID

	var newJackpot, newUnclaimed uint64
	var err error
	if winners == 0 && staysActive {
		newJackpot, err = addUint64Checked(u, j)
		newUnclaimed = 0
	} else {
		newJackpot = 0
		newUnclaimed = j
	}
	if err != nil {
		return Event{}, err
	}
	e.State.Jackpot = newJackpot
	e.State.UnclaimedPayouts = newUnclaimed

	e.State.CurrentGame = CurrentGame{Phase: PhasePurchase, ID: nextID}
	e.State.Rounds[nextID] = &Round{StartedAt: now}

	return newEvent(EventJackpotRollover, map[string]string{
		"gameId":              uitoa(id),
		"jackpotBefore":       uitoa(j),
		"unclaimedBefore":     uitoa(u),
		"jackpotAfter":        uitoa(newJackpot),
		"unclaimedAfter":      uitoa(newUnclaimed),
		"winningTicketsCount": uitoa(uint64(winners)),
	}), nil
}
