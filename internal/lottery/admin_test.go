package lottery

import (
	"context"
	"testing"
)

// scenario: RescueNativeCoin must move the balance out through
// NativeTransfer, not merely report it.
func TestRescueNativeCoinTransfersBalance(t *testing.T) {
	ctx := context.Background()
	now := int64(8_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)
	h.native.balance = 5_000

	amount, err := h.engine.RescueNativeCoin(ctx, owner)
	if err != nil {
		t.Fatalf("RescueNativeCoin: %v", err)
	}
	if amount != 5_000 {
		t.Fatalf("amount = %d, want 5000", amount)
	}
	if h.native.balance != 0 {
		t.Fatalf("native balance after rescue = %d, want 0", h.native.balance)
	}

	if _, err := h.engine.RescueNativeCoin(ctx, "not-"+owner); !IsKind(err, ErrNotOwner) {
		t.Fatalf("expected NotOwner for non-owner caller, got %v", err)
	}
}

func TestRescueNativeCoinZeroBalanceNoTransfer(t *testing.T) {
	ctx := context.Background()
	now := int64(8_100_000)
	h := newTestHarness(t, newHappyPathConfig(), now)
	h.native.balance = 0

	amount, err := h.engine.RescueNativeCoin(ctx, owner)
	if err != nil {
		t.Fatalf("RescueNativeCoin: %v", err)
	}
	if amount != 0 {
		t.Fatalf("amount = %d, want 0", amount)
	}
}

// scenario: RescueToken only moves the portion of the ledger balance not
// already accounted for in jackpot/unclaimedPayouts/accruedCommunityFees.
func TestRescueTokenOnlyMovesUnaccountedBalance(t *testing.T) {
	ctx := context.Background()
	now := int64(8_200_000)
	h := newTestHarness(t, newHappyPathConfig(), now)

	h.ledger.fund("seeder", 10*unit)
	if _, err := h.engine.SeedJackpot(ctx, "seeder", 10*unit, now); err != nil {
		t.Fatalf("SeedJackpot: %v", err)
	}
	// Simulate an unaccounted top-up landing directly in the lottery's
	// custody account, e.g. a stray transfer from outside the protocol.
	h.ledger.fund(lotteryAccount, unit)

	rescued, err := h.engine.RescueToken(ctx, owner)
	if err != nil {
		t.Fatalf("RescueToken: %v", err)
	}
	if rescued != unit {
		t.Fatalf("rescued = %d, want %d", rescued, unit)
	}
	balance, err := h.ledger.BalanceOf(ctx, lotteryAccount)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if balance != 10*unit {
		t.Fatalf("lottery balance after rescue = %d, want %d (jackpot still accounted)", balance, 10*unit)
	}
}
