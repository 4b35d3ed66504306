package lottery

import "context"

// ClaimWinnings implements spec.md §4.9. It does not require the lottery
// to still be Active(): apocalypse consolation claims must keep working
// after kill has frozen every other write, per scenario 3 of spec.md §8.
func (e *Engine) ClaimWinnings(ctx context.Context, caller string, ticketID uint64, now int64) (uint64, []Event, error) {
	if e.State.CurrentGame.Phase != PhasePurchase {
		return 0, nil, newError(ErrUnexpectedState, "expected phase Purchase, got %s", e.State.CurrentGame.Phase)
	}

	ticket, ok := e.State.Tickets[ticketID]
	if !ok {
		return 0, nil, newError(ErrUnexpectedState, "ticket %d does not exist", ticketID)
	}
	if ticket.GameID != e.State.CurrentGame.ID-1 {
		return 0, nil, newError(ErrClaimWindowMissed, "ticket %d belongs to round %d, claim window is round %d", ticketID, ticket.GameID, e.State.CurrentGame.ID-1)
	}

	owner, err := e.Collaborators.Registry.OwnerOf(ctx, ticketID)
	if err != nil {
		return 0, nil, err
	}
	if owner != caller {
		return 0, nil, newError(ErrNotOwner, "caller %q does not own ticket %d", caller, ticketID)
	}

	round, err := e.State.round(ticket.GameID)
	if err != nil {
		return 0, nil, err
	}
	w := round.WinningPickID
	winningIDs := e.State.RoundIndex[roundIndexKey(ticket.GameID, w)]
	totalWinners := len(winningIDs)

	// unclaimedWinners counts winning tickets still outstanding, including
	// this one (not yet burned below): spec.md §4.9's worked formula divides
	// the remaining pot by (winners - alreadyClaimed), so later co-winners
	// split down an ever-shrinking denominator instead of the fixed total.
	unclaimedWinners := 0
	for _, id := range winningIDs {
		if _, stillOutstanding := e.State.Tickets[id]; stillOutstanding {
			unclaimedWinners++
		}
	}

	// Burn first: the ticket is a single-use nullifier regardless of the
	// outcome of the claim attempt below, per spec.md §4.9.
	if err := e.Collaborators.Registry.Burn(ctx, ticketID); err != nil {
		return 0, nil, err
	}
	delete(e.State.Tickets, ticketID)

	switch {
	case totalWinners == 0 && !e.State.Active():
		return e.claimConsolation(ctx, caller, round)
	case ticket.PickID == w:
		return e.claimWinning(ctx, caller, unclaimedWinners)
	default:
		return 0, nil, newError(ErrNoWin, "ticket %d did not match the winning pick for round %d", ticketID, ticket.GameID)
	}
}

// claimConsolation implements the apocalypse no-winner path: every ticket
// in the terminal round gets an equal share of unclaimedPayouts.
// unclaimedPayouts is deliberately not decremented: every ticket in that
// round earns the same share, and any rounding dust is retained by the
// lottery, documented rather than distributed.
func (e *Engine) claimConsolation(ctx context.Context, caller string, round *Round) (uint64, []Event, error) {
	if round.TicketsSold == 0 {
		return 0, nil, newError(ErrNoWin, "round had no tickets sold")
	}
	payout := e.State.UnclaimedPayouts / round.TicketsSold
	if payout == 0 {
		return 0, nil, newError(ErrNoWin, "consolation share rounds to zero")
	}
	if err := e.Collaborators.Ledger.Transfer(ctx, caller, payout); err != nil {
		return 0, nil, err
	}
	return payout, []Event{newEvent(EventConsolationClaim, map[string]string{
		"recipient": caller,
		"payout":    uitoa(payout),
	})}, nil
}

// claimWinning implements the winning-ticket path: the payout is drawn
// down from unclaimedPayouts and split across unclaimedWinners, the count
// of winning tickets not yet claimed (including this one), so the share
// equals U/winners exactly whenever U mod winners = 0 regardless of claim
// order, per spec.md §4.9.
func (e *Engine) claimWinning(ctx context.Context, caller string, unclaimedWinners int) (uint64, []Event, error) {
	payout := e.State.UnclaimedPayouts / uint64(unclaimedWinners)
	if payout == 0 {
		return 0, nil, newError(ErrNoWin, "winning share rounds to zero")
	}
	newUnclaimed, err := subUint64Checked(e.State.UnclaimedPayouts, payout)
	if err != nil {
		return 0, nil, err
	}
	if err := e.Collaborators.Ledger.Transfer(ctx, caller, payout); err != nil {
		return 0, nil, err
	}
	e.State.UnclaimedPayouts = newUnclaimed

	return payout, []Event{newEvent(EventWinningsClaimed, map[string]string{
		"recipient": caller,
		"payout":    uitoa(payout),
	})}, nil
}
