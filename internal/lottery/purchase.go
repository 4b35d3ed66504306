package lottery

import (
	"context"

	"github.com/lootopgf/lootery-go/internal/pickset"
)

// lotteryAccount is the identifier this Engine's custody account is known
// by to its injected ValueLedger. One Engine serves one lottery, so one
// well-known self-account suffices; there is no multi-lottery
// orchestration in scope (spec.md §1 Non-goals).
const lotteryAccount = "lottery"

// TicketInput is one (recipient, picks) pair submitted to Purchase or
// OwnerPick.
type TicketInput struct {
	Recipient string
	Picks     []uint8
}

// Purchase implements spec.md §4.4: validates every ticket atomically,
// pulls ticketPrice*count from caller, splits fee vs jackpot share, mints
// consecutive ticket ids to their recipients.
func (e *Engine) Purchase(ctx context.Context, caller string, tickets []TicketInput, now int64) ([]uint64, []Event, error) {
	return e.purchaseInternal(ctx, caller, tickets, now, true)
}

// OwnerPick implements spec.md §4.4's owner variant: identical to
// Purchase but skips payment and fee accounting entirely.
func (e *Engine) OwnerPick(ctx context.Context, caller string, tickets []TicketInput, now int64) ([]uint64, []Event, error) {
	if err := e.requireOwner(caller); err != nil {
		return nil, nil, err
	}
	return e.purchaseInternal(ctx, caller, tickets, now, false)
}

func (e *Engine) purchaseInternal(ctx context.Context, caller string, tickets []TicketInput, now int64, paid bool) ([]uint64, []Event, error) {
	if err := e.requireActive(); err != nil {
		return nil, nil, err
	}
	if err := e.requirePurchasePhase(); err != nil {
		return nil, nil, err
	}
	if len(tickets) == 0 {
		return nil, nil, newError(ErrInvalidNumPicks, "purchase requires at least one ticket")
	}

	cfg := e.State.Config
	ids := make([]pickset.ID, len(tickets))
	for i, t := range tickets {
		if err := pickset.Validate(t.Picks, int(cfg.NumPicks), cfg.MaxBallValue); err != nil {
			switch err.(type) {
			case *pickset.OrderError:
				return nil, nil, newError(ErrUnsortedPicks, "ticket %d: %v", i, err)
			default:
				return nil, nil, newError(ErrInvalidBallValue, "ticket %d: %v", i, err)
			}
		}
		ids[i] = pickset.Encode(t.Picks)
	}

	round, err := e.currentRound()
	if err != nil {
		return nil, nil, err
	}
	newTicketsSold, err := addUint64Checked(round.TicketsSold, uint64(len(tickets)))
	if err != nil {
		return nil, nil, err
	}

	var fee, jackpotShare uint64
	if paid {
		total, err := mulUint64Checked(cfg.TicketPrice, uint64(len(tickets)))
		if err != nil {
			return nil, nil, err
		}
		fee, jackpotShare, err = splitByBps(total, cfg.CommunityFeeBps)
		if err != nil {
			return nil, nil, err
		}
		if err := e.Collaborators.Ledger.TransferFrom(ctx, caller, lotteryAccount, total); err != nil {
			return nil, nil, err
		}
	}

	if paid {
		e.State.AccruedCommunityFees, err = addUint64Checked(e.State.AccruedCommunityFees, fee)
		if err != nil {
			return nil, nil, err
		}
		e.State.Jackpot, err = addUint64Checked(e.State.Jackpot, jackpotShare)
		if err != nil {
			return nil, nil, err
		}
	}
	round.TicketsSold = newTicketsSold

	// Mint every ticket before touching e.State.Tickets/RoundIndex/NextTicketID:
	// MintTo is the only fallible step left, so running all of it first
	// means a failure partway through never leaves state mutated for ids
	// whose mint never happened.
	ticketIDs := make([]uint64, len(tickets))
	nextTicketID := e.State.NextTicketID
	for i, t := range tickets {
		ticketIDs[i] = nextTicketID
		nextTicketID++
		if err := e.Collaborators.Registry.MintTo(ctx, t.Recipient, ticketIDs[i]); err != nil {
			return nil, nil, err
		}
	}

	events := make([]Event, 0, len(tickets))
	for i, t := range tickets {
		ticketID := ticketIDs[i]
		e.State.Tickets[ticketID] = &Ticket{GameID: e.State.CurrentGame.ID, PickID: ids[i]}
		key := roundIndexKey(e.State.CurrentGame.ID, ids[i])
		e.State.RoundIndex[key] = append(e.State.RoundIndex[key], ticketID)

		events = append(events, newEvent(EventTicketPurchased, map[string]string{
			"ticketId":  uitoa(ticketID),
			"recipient": t.Recipient,
			"gameId":    uitoa(e.State.CurrentGame.ID),
			"pickId":    ids[i].String(),
		}))
	}
	e.State.NextTicketID = nextTicketID

	return ticketIDs, events, nil
}

// SeedJackpot implements spec.md §4.5: a rate-limited, owner-or-anyone
// top-up of the current round's jackpot.
func (e *Engine) SeedJackpot(ctx context.Context, caller string, value uint64, now int64) ([]Event, error) {
	if err := e.requireActive(); err != nil {
		return nil, err
	}
	if err := e.requirePurchasePhase(); err != nil {
		return nil, err
	}
	cfg := e.State.Config
	if value < cfg.SeedJackpotMinValue {
		return nil, newError(ErrInsufficientJackpotSeed, "value %d below minimum %d", value, cfg.SeedJackpotMinValue)
	}
	if now < e.State.LastSeededAt+cfg.SeedJackpotDelay {
		return nil, newError(ErrRateLimited, "next seed accepted at %d, now %d", e.State.LastSeededAt+cfg.SeedJackpotDelay, now)
	}

	if err := e.Collaborators.Ledger.TransferFrom(ctx, caller, lotteryAccount, value); err != nil {
		return nil, err
	}

	newJackpot, err := addUint64Checked(e.State.Jackpot, value)
	if err != nil {
		return nil, err
	}
	e.State.Jackpot = newJackpot
	e.State.LastSeededAt = now

	return []Event{newEvent(EventJackpotSeeded, map[string]string{
		"value":   uitoa(value),
		"jackpot": uitoa(e.State.Jackpot),
	})}, nil
}
