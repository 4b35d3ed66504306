package lottery

import (
	"context"
	"fmt"
)

// These test doubles are the in-memory stand-ins for the external
// collaborators described in spec.md §6; they exist only so the core can
// be exercised end-to-end without a real chain, oracle, or renderer, the
// same role the teacher's app_test.go gives its in-process test app.

type memLedger struct {
	balances map[string]uint64
}

func newMemLedger() *memLedger {
	return &memLedger{balances: map[string]uint64{}}
}

func (l *memLedger) fund(addr string, amount uint64) {
	l.balances[addr] += amount
}

func (l *memLedger) TransferFrom(ctx context.Context, from, to string, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("memLedger: %q has insufficient balance for transfer of %d", from, amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *memLedger) Transfer(ctx context.Context, to string, amount uint64) error {
	return l.TransferFrom(ctx, lotteryAccount, to, amount)
}

func (l *memLedger) BalanceOf(ctx context.Context, addr string) (uint64, error) {
	return l.balances[addr], nil
}

type memRegistry struct {
	owners map[uint64]string
}

func newMemRegistry() *memRegistry {
	return &memRegistry{owners: map[uint64]string{}}
}

func (r *memRegistry) MintTo(ctx context.Context, recipient string, ticketID uint64) error {
	r.owners[ticketID] = recipient
	return nil
}

func (r *memRegistry) Burn(ctx context.Context, ticketID uint64) error {
	delete(r.owners, ticketID)
	return nil
}

func (r *memRegistry) OwnerOf(ctx context.Context, ticketID uint64) (string, error) {
	owner, ok := r.owners[ticketID]
	if !ok {
		return "", fmt.Errorf("memRegistry: ticket %d has no owner", ticketID)
	}
	return owner, nil
}

type memOracle struct {
	price         uint64
	nextRequestID uint64
}

func (o *memOracle) GetRequestPrice(ctx context.Context, gas uint64) (uint64, error) {
	return o.price, nil
}

func (o *memOracle) RequestRandomness(ctx context.Context, deadline int64, gas uint64) (uint64, error) {
	o.nextRequestID++
	return o.nextRequestID, nil
}

// memNativeCoin is the native-coin test double backing NativeBalanceFunc
// and NativeTransferFunc together, so RescueNativeCoin tests can assert on
// the balance actually moving rather than just being reported.
type memNativeCoin struct {
	balance uint64
}

func newMemNativeCoin(balance uint64) *memNativeCoin {
	return &memNativeCoin{balance: balance}
}

func (n *memNativeCoin) Balance(ctx context.Context) (uint64, error) {
	return n.balance, nil
}

func (n *memNativeCoin) Transfer(ctx context.Context, recipient string, amount uint64) error {
	if n.balance < amount {
		return fmt.Errorf("memNativeCoin: insufficient balance for %d", amount)
	}
	n.balance -= amount
	return nil
}
