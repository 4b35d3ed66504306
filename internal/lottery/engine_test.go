package lottery

import (
	"context"
	"testing"

	"github.com/lootopgf/lootery-go/internal/feistel"
	"github.com/lootopgf/lootery-go/internal/pickset"
)

// unit is one whole token in the ledger's base units, the denomination
// of the literal scenarios in spec.md §8 ("0.1", "10.0", "10.05", ...):
// one token is 1e8 base units, matching the scenarios' two-decimal-place figures exactly
// (0.1 token = 1e7, 10.0 token = 1e9, 0.05 token = 5e6).
const unit = 100_000_000

const owner = "owner"
const oracleAddr = "oracle"

func newHappyPathConfig() Config {
	return Config{
		NumPicks:            5,
		MaxBallValue:        69,
		GamePeriod:          3600,
		TicketPrice:         unit / 10, // 0.1
		CommunityFeeBps:     5000,      // 50%
		SeedJackpotDelay:    3600,
		SeedJackpotMinValue: unit,
		Owner:               owner,
		Oracle:              oracleAddr,
		OracleCallbackGas:   500_000,
	}
}

type testHarness struct {
	engine   *Engine
	ledger   *memLedger
	registry *memRegistry
	oracle   *memOracle
	native   *memNativeCoin
}

func newTestHarness(t *testing.T, cfg Config, now int64) *testHarness {
	t.Helper()
	ledger := newMemLedger()
	registry := newMemRegistry()
	oracle := &memOracle{price: 100}
	native := newMemNativeCoin(1_000_000)

	engine, err := Init(cfg, now, Collaborators{
		Ledger:         ledger,
		Registry:       registry,
		Oracle:         oracle,
		NativeBalance:  native.Balance,
		NativeTransfer: native.Transfer,
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return &testHarness{engine: engine, ledger: ledger, registry: registry, oracle: oracle, native: native}
}

// scenario 1: happy win.
func TestScenarioHappyWin(t *testing.T) {
	ctx := context.Background()
	now := int64(1_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)

	h.ledger.fund("alice", 11*unit) // plenty to seed + buy
	if _, err := h.engine.SeedJackpot(ctx, "alice", 10*unit, now); err != nil {
		t.Fatalf("SeedJackpot: %v", err)
	}

	// The seed used here is this package's own deterministic draw input;
	// it is not the literal seed from the original Solidity contract's
	// scenario, since the two shuffle algorithms are unrelated by design.
	// The ticket below is purchased with whatever balls this seed draws,
	// so the "happy win" property (payout = jackpot, fee retained) is
	// exercised regardless of the exact winning numbers.
	winningBalls := feistel.DrawBalls([]byte("scenario-1-seed"), 5, 69)
	winningTicket, _, err := h.engine.Purchase(ctx, "alice", []TicketInput{{Recipient: "alice", Picks: winningBalls}}, now)
	if err != nil {
		t.Fatalf("Purchase winning ticket: %v", err)
	}

	now += 3600
	if _, err := h.engine.Draw(ctx, now); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if h.engine.State.CurrentGame.Phase != PhaseDrawPending {
		t.Fatalf("expected DrawPending, got %s", h.engine.State.CurrentGame.Phase)
	}

	if _, err := h.engine.OnRandomness(oracleAddr, h.engine.State.Randomness.RequestID, [][]byte{[]byte("scenario-1-seed")}, now); err != nil {
		t.Fatalf("OnRandomness: %v", err)
	}

	if h.engine.State.CurrentGame.Phase != PhasePurchase {
		t.Fatalf("expected Purchase after finalisation, got %s", h.engine.State.CurrentGame.Phase)
	}
	wantUnclaimed := uint64(10*unit + unit/20) // 10.0 seeded + 0.05 jackpot share from the one ticket
	if h.engine.State.UnclaimedPayouts != wantUnclaimed {
		t.Fatalf("unclaimedPayouts = %d, want %d", h.engine.State.UnclaimedPayouts, wantUnclaimed)
	}
	if h.engine.State.Jackpot != 0 {
		t.Fatalf("jackpot = %d, want 0", h.engine.State.Jackpot)
	}

	payout, _, err := h.engine.ClaimWinnings(ctx, "alice", winningTicket[0], now)
	if err != nil {
		t.Fatalf("ClaimWinnings: %v", err)
	}
	if payout != wantUnclaimed {
		t.Fatalf("payout = %d, want %d", payout, wantUnclaimed)
	}
	// The sole winner's payout equals the full pot, so unclaimedPayouts
	// is drawn down to zero by this one claim.
	if h.engine.State.UnclaimedPayouts != 0 {
		t.Fatalf("unclaimedPayouts after sole claim = %d, want 0", h.engine.State.UnclaimedPayouts)
	}
	if h.engine.State.AccruedCommunityFees != unit/20 {
		t.Fatalf("accruedCommunityFees = %d, want %d", h.engine.State.AccruedCommunityFees, unit/20)
	}
}

// scenario 1b: co-winners claiming in sequence each get an equal integer
// share with no dust stranded, dividing by the count of still-unclaimed
// winners rather than the fixed total at every step.
func TestScenarioMultiWinnerEqualShares(t *testing.T) {
	ctx := context.Background()
	now := int64(1_500_000)
	h := newTestHarness(t, newHappyPathConfig(), now)

	h.ledger.fund("p1", 11*unit)
	h.ledger.fund("p2", unit)
	if _, err := h.engine.SeedJackpot(ctx, "p1", 10*unit, now); err != nil {
		t.Fatalf("SeedJackpot: %v", err)
	}

	winningBalls := feistel.DrawBalls([]byte("scenario-1b-seed"), 5, 69)
	idsP1, _, err := h.engine.Purchase(ctx, "p1", []TicketInput{{Recipient: "p1", Picks: winningBalls}}, now)
	if err != nil {
		t.Fatalf("Purchase p1: %v", err)
	}
	idsP2, _, err := h.engine.Purchase(ctx, "p2", []TicketInput{{Recipient: "p2", Picks: winningBalls}}, now)
	if err != nil {
		t.Fatalf("Purchase p2: %v", err)
	}

	now += 3600
	if _, err := h.engine.Draw(ctx, now); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if _, err := h.engine.OnRandomness(oracleAddr, h.engine.State.Randomness.RequestID, [][]byte{[]byte("scenario-1b-seed")}, now); err != nil {
		t.Fatalf("OnRandomness: %v", err)
	}

	// Two tickets at 0.1 each, 50% fee: 0.1 total fee, 0.1 total jackpot
	// share. 10.0 seeded + 0.1 share = 10.1, which splits evenly two ways.
	wantUnclaimed := uint64(10*unit + unit/10)
	if h.engine.State.UnclaimedPayouts != wantUnclaimed {
		t.Fatalf("unclaimedPayouts = %d, want %d", h.engine.State.UnclaimedPayouts, wantUnclaimed)
	}
	wantShare := wantUnclaimed / 2

	payout1, _, err := h.engine.ClaimWinnings(ctx, "p1", idsP1[0], now)
	if err != nil {
		t.Fatalf("ClaimWinnings p1: %v", err)
	}
	if payout1 != wantShare {
		t.Fatalf("p1 payout = %d, want %d", payout1, wantShare)
	}

	payout2, _, err := h.engine.ClaimWinnings(ctx, "p2", idsP2[0], now)
	if err != nil {
		t.Fatalf("ClaimWinnings p2: %v", err)
	}
	if payout2 != wantShare {
		t.Fatalf("p2 payout = %d, want %d", payout2, wantShare)
	}

	if payout1+payout2 != wantUnclaimed {
		t.Fatalf("payout1+payout2 = %d, want %d (no dust should remain)", payout1+payout2, wantUnclaimed)
	}
	if h.engine.State.UnclaimedPayouts != 0 {
		t.Fatalf("unclaimedPayouts after both claims = %d, want 0", h.engine.State.UnclaimedPayouts)
	}
}

// scenario 2: no winner roll-over.
func TestScenarioNoWinnerRollover(t *testing.T) {
	ctx := context.Background()
	now := int64(2_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)
	h.ledger.fund("bob", 11*unit)

	if _, err := h.engine.SeedJackpot(ctx, "bob", 10*unit, now); err != nil {
		t.Fatalf("SeedJackpot: %v", err)
	}
	if _, _, err := h.engine.Purchase(ctx, "bob", []TicketInput{{Recipient: "bob", Picks: []uint8{1, 2, 3, 4, 5}}}, now); err != nil {
		t.Fatalf("Purchase: %v", err)
	}

	now += 3600
	if _, err := h.engine.Draw(ctx, now); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	// Seed chosen so the drawn balls are guaranteed not to equal the
	// non-matching ticket above: [1,2,3,4,5] would require the domain's
	// first five shuffled outputs to coincide, astronomically unlikely
	// with a differently keyed seed.
	if _, err := h.engine.OnRandomness(oracleAddr, h.engine.State.Randomness.RequestID, [][]byte{[]byte("scenario-2-seed")}, now); err != nil {
		t.Fatalf("OnRandomness: %v", err)
	}

	wantJackpot := uint64(10*unit + unit/20)
	if h.engine.State.Jackpot != wantJackpot {
		t.Fatalf("jackpot = %d, want %d", h.engine.State.Jackpot, wantJackpot)
	}
	if h.engine.State.UnclaimedPayouts != 0 {
		t.Fatalf("unclaimedPayouts = %d, want 0", h.engine.State.UnclaimedPayouts)
	}
	if h.engine.State.CurrentGame.ID != 1 {
		t.Fatalf("currentGame.id = %d, want 1", h.engine.State.CurrentGame.ID)
	}
}

// scenario 3: equal-share apocalypse.
func TestScenarioApocalypseConsolation(t *testing.T) {
	ctx := context.Background()
	now := int64(3_000_000)
	cfg := newHappyPathConfig()
	h := newTestHarness(t, cfg, now)
	h.ledger.fund("p1", unit)
	h.ledger.fund("p2", unit)
	h.ledger.fund("p3", unit)
	h.ledger.fund("p4", unit)

	if err := h.engine.Kill(owner); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if h.engine.State.ApocalypseGameID != 1 {
		t.Fatalf("apocalypseGameId = %d, want 1", h.engine.State.ApocalypseGameID)
	}

	buyers := []string{"p1", "p2", "p3", "p4"}
	picks := [][]uint8{
		{1, 2, 3, 4, 5},
		{10, 11, 12, 13, 14},
		{20, 21, 22, 23, 24},
		{30, 31, 32, 33, 34},
	}
	ticketIDs := make([]uint64, 4)
	for i, buyer := range buyers {
		ids, _, err := h.engine.Purchase(ctx, buyer, []TicketInput{{Recipient: buyer, Picks: picks[i]}}, now)
		if err != nil {
			t.Fatalf("Purchase[%d]: %v", i, err)
		}
		ticketIDs[i] = ids[0]
	}

	now += 3600
	if _, err := h.engine.Draw(ctx, now); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if _, err := h.engine.OnRandomness(oracleAddr, h.engine.State.Randomness.RequestID, [][]byte{[]byte("apocalypse-seed-no-match")}, now); err != nil {
		t.Fatalf("OnRandomness: %v", err)
	}

	if h.engine.State.Active() {
		t.Fatal("engine should be inactive after the terminal round closes")
	}
	if h.engine.State.UnclaimedPayouts == 0 {
		t.Fatal("unclaimedPayouts should hold the terminal round's pot for consolation")
	}
	wantShare := h.engine.State.UnclaimedPayouts / 4

	for i, buyer := range buyers {
		payout, _, err := h.engine.ClaimWinnings(ctx, buyer, ticketIDs[i], now)
		if err != nil {
			t.Fatalf("ClaimWinnings[%d]: %v", i, err)
		}
		if payout != wantShare {
			t.Fatalf("claim[%d] payout = %d, want %d", i, payout, wantShare)
		}
	}

	// Further writes must refuse with GameInactive.
	if _, err := h.engine.Draw(ctx, now); !IsKind(err, ErrGameInactive) {
		t.Fatalf("expected GameInactive on Draw after apocalypse, got %v", err)
	}
	if _, _, err := h.engine.Purchase(ctx, "p1", []TicketInput{{Recipient: "p1", Picks: picks[0]}}, now); !IsKind(err, ErrGameInactive) {
		t.Fatalf("expected GameInactive on Purchase after apocalypse, got %v", err)
	}
	if err := h.engine.Kill(owner); !IsKind(err, ErrGameInactive) {
		t.Fatalf("expected GameInactive on Kill after apocalypse, got %v", err)
	}
}

// scenario 4: rate-limited seeding.
func TestScenarioRateLimitedSeeding(t *testing.T) {
	ctx := context.Background()
	now := int64(4_000_000)
	cfg := newHappyPathConfig()
	cfg.SeedJackpotDelay = 3600
	cfg.SeedJackpotMinValue = 10
	h := newTestHarness(t, cfg, now)
	h.ledger.fund("seeder", 1000)

	if _, err := h.engine.SeedJackpot(ctx, "seeder", 100, now); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if _, err := h.engine.SeedJackpot(ctx, "seeder", 100, now); !IsKind(err, ErrRateLimited) {
		t.Fatalf("expected RateLimited, got %v", err)
	}
	now += 3600
	if _, err := h.engine.SeedJackpot(ctx, "seeder", 100, now); err != nil {
		t.Fatalf("seed after delay: %v", err)
	}
	if _, err := h.engine.SeedJackpot(ctx, "seeder", 9, now); !IsKind(err, ErrInsufficientJackpotSeed) {
		t.Fatalf("expected InsufficientJackpotSeed, got %v", err)
	}
}

// scenario 5: empty-round skip.
func TestScenarioEmptyRoundSkip(t *testing.T) {
	ctx := context.Background()
	now := int64(5_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)

	now += 3600
	events, err := h.engine.Draw(ctx, now)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	foundSkip := false
	for _, e := range events {
		if e.Type == EventDrawSkipped {
			foundSkip = true
		}
	}
	if !foundSkip {
		t.Fatal("expected a DrawSkipped event")
	}
	if h.engine.State.CurrentGame.Phase != PhasePurchase {
		t.Fatalf("phase after skip = %s, want Purchase", h.engine.State.CurrentGame.Phase)
	}
	if h.engine.State.CurrentGame.ID != 1 {
		t.Fatalf("currentGame.id after skip = %d, want 1", h.engine.State.CurrentGame.ID)
	}
	if h.engine.State.Randomness.Active() {
		t.Fatal("no randomness request should have been issued")
	}
}

// scenario 6: batch minting assigns distinct recipients.
func TestScenarioBatchMintDistinctRecipients(t *testing.T) {
	ctx := context.Background()
	now := int64(6_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)
	h.ledger.fund("payer", unit)

	tickets := make([]TicketInput, 10)
	picks := feistel.DrawBalls([]byte("batch-base"), 5, 69)
	for i := range tickets {
		recipient := "recipient-" + string(rune('0'+i))
		tickets[i] = TicketInput{Recipient: recipient, Picks: picks}
	}

	ids, _, err := h.engine.Purchase(ctx, "payer", tickets, now)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if len(ids) != 10 {
		t.Fatalf("expected 10 ticket ids, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[i-1]+1 {
			t.Fatalf("ticket ids not consecutive: %v", ids)
		}
	}
	for i, id := range ids {
		owner, err := h.registry.OwnerOf(ctx, id)
		if err != nil {
			t.Fatalf("OwnerOf(%d): %v", id, err)
		}
		want := "recipient-" + string(rune('0'+i))
		if owner != want {
			t.Fatalf("ticket %d owner = %q, want %q", id, owner, want)
		}
	}
}

func TestPickSetRoundTripThroughPurchase(t *testing.T) {
	ctx := context.Background()
	now := int64(7_000_000)
	h := newTestHarness(t, newHappyPathConfig(), now)
	h.ledger.fund("x", unit)

	picks := []uint8{2, 4, 6, 8, 10}
	ids, _, err := h.engine.Purchase(ctx, "x", []TicketInput{{Recipient: "x", Picks: picks}}, now)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	ticket := h.engine.State.Tickets[ids[0]]
	decoded := pickset.Decode(ticket.PickID, len(picks))
	for i, p := range picks {
		if decoded[i] != p {
			t.Fatalf("decoded picks %v != original %v", decoded, picks)
		}
	}
}
