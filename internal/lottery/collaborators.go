package lottery

import "context"

// ValueLedger is the prize-token custody collaborator: spec.md §6's
// "transferFrom(from,to,amount)" (pull), "transfer(to,amount)" (push),
// "balanceOf(addr)". The core never mutates balances directly; it only
// ever asks the ledger to move funds it has already accounted for.
type ValueLedger interface {
	TransferFrom(ctx context.Context, from, to string, amount uint64) error
	Transfer(ctx context.Context, to string, amount uint64) error
	BalanceOf(ctx context.Context, addr string) (uint64, error)
}

// TicketRegistry is the ticket-NFT collaborator: spec.md §6's
// "mintTo(recipient,id)", "burn(id)", "ownerOf(id)". The core owns
// mint/burn calls but never tracks ownership itself.
type TicketRegistry interface {
	MintTo(ctx context.Context, recipient string, ticketID uint64) error
	Burn(ctx context.Context, ticketID uint64) error
	OwnerOf(ctx context.Context, ticketID uint64) (string, error)
}

// RandomnessOracle is the external randomness collaborator: spec.md §6's
// "getRequestPrice(gas)" and "requestRandomness(deadline,gas)". It later
// invokes the core's OnRandomness as a separate, later operation.
type RandomnessOracle interface {
	GetRequestPrice(ctx context.Context, gas uint64) (uint64, error)
	RequestRandomness(ctx context.Context, deadline int64, gas uint64) (requestID uint64, err error)
}

// NativeBalanceFunc reports the lottery's native-coin balance, the funds
// spec.md §4.6/§5 says are "consumed solely to pay the oracle" and are
// tracked separately from the prize-token ValueLedger. It is a function
// value rather than an interface because the host's notion of
// native-coin custody has no other shape the core needs to know about.
type NativeBalanceFunc func(ctx context.Context) (uint64, error)

// NativeTransferFunc moves amount of the lottery's native-coin balance to
// recipient, the write-side companion to NativeBalanceFunc that
// RescueNativeCoin uses to actually move the rescued funds rather than
// merely reporting them.
type NativeTransferFunc func(ctx context.Context, recipient string, amount uint64) error

// Collaborators bundles the external interfaces and host hooks an Engine
// is constructed with, following spec.md §9's explicit-delegation design:
// the core holds references to these instead of embedding capabilities.
type Collaborators struct {
	Ledger         ValueLedger
	Registry       TicketRegistry
	Oracle         RandomnessOracle
	NativeBalance  NativeBalanceFunc
	NativeTransfer NativeTransferFunc
}
