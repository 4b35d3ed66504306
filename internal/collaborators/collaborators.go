// Package collaborators provides in-process reference implementations of
// the lottery core's three external interfaces (ValueLedger,
// TicketRegistry, RandomnessOracle), so the whole system can run and be
// tested end-to-end without a real chain, ticket-NFT contract, or
// randomness beacon wired in. Per spec.md §1's Non-goals, these are not a
// claim to reimplement the real collaborators; they exist solely to make
// internal/app operable in this repository.
package collaborators

import (
	"context"
	"fmt"
	"sync"
)

// Ledger is a reference ValueLedger: a plain balance table. It satisfies
// lottery.ValueLedger.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]uint64
}

// NewLedger builds an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: map[string]uint64{}}
}

// Fund credits addr, the devnet equivalent of an external deposit; there
// is no withdrawal path other than TransferFrom/Transfer.
func (l *Ledger) Fund(addr string, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] += amount
}

func (l *Ledger) TransferFrom(ctx context.Context, from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[from] < amount {
		return fmt.Errorf("collaborators: ledger: %q has insufficient balance for %d", from, amount)
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

func (l *Ledger) Transfer(ctx context.Context, to string, amount uint64) error {
	return l.TransferFrom(ctx, SelfAccount, to, amount)
}

func (l *Ledger) BalanceOf(ctx context.Context, addr string) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr], nil
}

// SelfAccount is the custody account the lottery's own funds are held
// under, matching the lottery core's lotteryAccount identifier.
const SelfAccount = "lottery"

// Registry is a reference TicketRegistry: an owner-by-id table.
type Registry struct {
	mu     sync.Mutex
	owners map[uint64]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{owners: map[uint64]string{}}
}

func (r *Registry) MintTo(ctx context.Context, recipient string, ticketID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.owners[ticketID]; exists {
		return fmt.Errorf("collaborators: registry: ticket %d already minted", ticketID)
	}
	r.owners[ticketID] = recipient
	return nil
}

func (r *Registry) Burn(ctx context.Context, ticketID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.owners[ticketID]; !exists {
		return fmt.Errorf("collaborators: registry: ticket %d does not exist", ticketID)
	}
	delete(r.owners, ticketID)
	return nil
}

func (r *Registry) OwnerOf(ctx context.Context, ticketID uint64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[ticketID]
	if !ok {
		return "", fmt.Errorf("collaborators: registry: ticket %d does not exist", ticketID)
	}
	return owner, nil
}

// Oracle is a reference RandomnessOracle. It never calls back on its own;
// a devnet operator (or a test) must explicitly deliver randomness by
// calling internal/app's onRandomness transaction with the requestId this
// oracle handed out, the same division of responsibility the real oracle
// has with the core.
type Oracle struct {
	mu            sync.Mutex
	price         uint64
	nextRequestID uint64
}

// NewOracle builds an oracle that quotes a fixed request price.
func NewOracle(price uint64) *Oracle {
	return &Oracle{price: price}
}

func (o *Oracle) GetRequestPrice(ctx context.Context, gas uint64) (uint64, error) {
	return o.price, nil
}

func (o *Oracle) RequestRandomness(ctx context.Context, deadline int64, gas uint64) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nextRequestID++
	return o.nextRequestID, nil
}

// LastRequestID reports the most recently issued request id, a devnet
// convenience for driving the oracle callback from a test or CLI without
// a real off-chain listener watching RequestRandomness events.
func (o *Oracle) LastRequestID() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nextRequestID
}

// NativeCoin is a reference native-coin balance: the devnet stand-in for
// whatever gas-token balance the host chain exposes to RescueNativeCoin,
// tracked separately from Ledger because spec.md keeps prize-token
// custody and native-coin custody in distinct accounting domains.
type NativeCoin struct {
	mu      sync.Mutex
	balance uint64
}

// NewNativeCoin builds a native-coin balance seeded at balance.
func NewNativeCoin(balance uint64) *NativeCoin {
	return &NativeCoin{balance: balance}
}

// Balance satisfies lottery.NativeBalanceFunc.
func (n *NativeCoin) Balance(ctx context.Context) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.balance, nil
}

// Transfer satisfies lottery.NativeTransferFunc.
func (n *NativeCoin) Transfer(ctx context.Context, recipient string, amount uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.balance < amount {
		return fmt.Errorf("collaborators: nativecoin: insufficient balance for %d", amount)
	}
	n.balance -= amount
	return nil
}
