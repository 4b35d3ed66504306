package lottery

import "context"

// WithdrawAccruedFees implements spec.md §4.10: transfers the accrued
// community fee balance out and zeroes the counter.
func (e *Engine) WithdrawAccruedFees(ctx context.Context, caller string) (uint64, error) {
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	amount := e.State.AccruedCommunityFees
	if amount == 0 {
		return 0, nil
	}
	if err := e.Collaborators.Ledger.Transfer(ctx, caller, amount); err != nil {
		return 0, err
	}
	e.State.AccruedCommunityFees = 0
	return amount, nil
}

// Kill implements spec.md §4.10: declares the current round the terminal
// round. apocalypseGameId is set once and never changes again (P7).
func (e *Engine) Kill(caller string) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.requireActive(); err != nil {
		return err
	}
	if err := e.requirePurchasePhase(); err != nil {
		return err
	}
	e.State.ApocalypseGameID = e.State.CurrentGame.ID + 1
	return nil
}

// RescueNativeCoin implements spec.md §4.10: the native-coin balance has
// no accounting buckets of its own (it only ever funds oracle requests),
// so the entire reported balance is rescuable. It transfers the balance
// out via NativeTransfer rather than merely reporting it, the same
// transfer-then-return shape RescueToken uses for the prize token.
func (e *Engine) RescueNativeCoin(ctx context.Context, caller string) (uint64, error) {
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	balance, err := e.Collaborators.NativeBalance(ctx)
	if err != nil {
		return 0, err
	}
	if balance == 0 {
		return 0, nil
	}
	if err := e.Collaborators.NativeTransfer(ctx, caller, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// RescueToken implements spec.md §4.10 for the prize token: only the
// portion of the ledger balance not already accounted for in jackpot,
// unclaimedPayouts, or accruedCommunityFees is rescuable.
func (e *Engine) RescueToken(ctx context.Context, caller string) (uint64, error) {
	if err := e.requireOwner(caller); err != nil {
		return 0, err
	}
	balance, err := e.Collaborators.Ledger.BalanceOf(ctx, lotteryAccount)
	if err != nil {
		return 0, err
	}

	accounted, err := addUint64Checked(e.State.Jackpot, e.State.UnclaimedPayouts)
	if err != nil {
		return 0, err
	}
	accounted, err = addUint64Checked(accounted, e.State.AccruedCommunityFees)
	if err != nil {
		return 0, err
	}
	if accounted >= balance {
		return 0, nil
	}
	rescuable := balance - accounted

	if err := e.Collaborators.Ledger.Transfer(ctx, caller, rescuable); err != nil {
		return 0, err
	}
	return rescuable, nil
}
