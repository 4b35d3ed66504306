// Package app hosts the lottery core behind a CometBFT ABCI application,
// the same pattern the teacher's apps/chain/internal/app package uses for
// its poker/bank state: one mutex-guarded snapshot, deliverTx dispatching
// JSON tx envelopes by type, and Commit persisting to disk after every
// block.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/lootopgf/lootery-go/internal/codec"
	"github.com/lootopgf/lootery-go/internal/lottery"
	"github.com/lootopgf/lootery-go/internal/state"
)

// AppVersion identifies the protocol this binary speaks, bumped whenever
// the tx/query schema changes in an incompatible way.
const AppVersion uint64 = 1

// App is the ABCI application wrapping one lottery's persisted snapshot.
// It holds no lottery-domain logic of its own; every write is delegated
// to a freshly constructed lottery.Engine over the current snapshot.
type App struct {
	*abci.BaseApplication

	home          string
	collaborators lottery.Collaborators

	mu       sync.Mutex
	snap     *state.Snapshot
	lastHash []byte

	// sink, if set, is handed every block's tx results right before
	// FinalizeBlock returns. internal/httpapi's live feed and
	// internal/audit's sink both hang off it; neither is consensus-
	// relevant, so a nil sink (the zero value) is a complete, valid App.
	sink func(height int64, txResults []*abci.ExecTxResult)
}

// SetSink installs fn as the block-result sink, replacing any previously
// set sink. Not safe to call concurrently with FinalizeBlock.
func (a *App) SetSink(fn func(height int64, txResults []*abci.ExecTxResult)) {
	a.sink = fn
}

// ToLotteryEvents flattens the ABCI events emitted by a block's tx results
// back into lottery.Event, the shape internal/httpapi and internal/audit
// consume instead of ABCI's wire types. Failed transactions (Code != 0)
// contribute no events.
func ToLotteryEvents(txResults []*abci.ExecTxResult) []lottery.Event {
	var out []lottery.Event
	for _, res := range txResults {
		if res.Code != 0 {
			continue
		}
		for _, ev := range res.Events {
			attrs := make(map[string]string, len(ev.Attributes))
			for _, a := range ev.Attributes {
				attrs[a.Key] = a.Value
			}
			out = append(out, lottery.Event{Type: ev.Type, Attrs: attrs})
		}
	}
	return out
}

// New loads an existing snapshot from home/app, or leaves the app
// awaiting genesis via InitChain if none exists yet.
func New(home string, collaborators lottery.Collaborators) (*App, error) {
	appHome := filepath.Join(home, "app")
	snap, err := state.Load(appHome)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		snap = nil
	}

	a := &App{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		collaborators:   collaborators,
		snap:            snap,
	}
	if snap != nil {
		hash, err := snap.AppHash()
		if err != nil {
			return nil, err
		}
		a.lastHash = hash
	}
	return a, nil
}

// Initialized reports whether genesis has already run, either because a
// snapshot was loaded from disk or because InitChain has already been
// called this process. cmd/lootd uses this to decide whether it must
// drive InitChain itself for a standalone devnet run with no external
// CometBFT genesis handshake.
func (a *App) Initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap != nil
}

func (a *App) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	resp := &abci.InfoResponse{
		Data:       "lootd (v1)",
		Version:    "v1",
		AppVersion: AppVersion,
	}
	if a.snap != nil {
		resp.LastBlockHeight = a.snap.Height
		resp.LastBlockAppHash = a.lastHash
	}
	return resp, nil
}

func (a *App) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	if _, err := codec.DecodeTxEnvelope(req.Tx); err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	// Structural validation only; signatures and domain checks run at
	// delivery time, mirroring the teacher's own CheckTx scope.
	return &abci.CheckTxResponse{Code: 0}, nil
}

// InitChain builds genesis state from the genesis app_state, a JSON
// lottery.Config. It is a no-op if a snapshot was already loaded from
// disk, so a restarted node re-joining a running chain never re-inits.
func (a *App) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snap != nil {
		return &abci.InitChainResponse{AppHash: a.lastHash}, nil
	}

	var cfg lottery.Config
	if err := json.Unmarshal(req.AppStateBytes, &cfg); err != nil {
		return nil, fmt.Errorf("app: decode genesis config: %w", err)
	}

	snap, err := state.New(cfg, req.Time.Unix())
	if err != nil {
		return nil, fmt.Errorf("app: build genesis state: %w", err)
	}
	a.snap = snap
	hash, err := snap.AppHash()
	if err != nil {
		return nil, err
	}
	a.lastHash = hash

	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func (a *App) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snap == nil {
		return nil, fmt.Errorf("app: FinalizeBlock called before InitChain")
	}
	a.snap.Height = req.Height

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		txResults = append(txResults, a.deliverTx(txBytes, req.Time.Unix()))
	}

	hash, err := a.snap.AppHash()
	if err != nil {
		return nil, err
	}
	a.lastHash = hash

	if a.sink != nil {
		a.sink(a.snap.Height, txResults)
	}

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *App) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	appHome := filepath.Join(a.home, "app")
	if err := a.snap.Save(appHome); err != nil {
		// CometBFT expects Commit not to panic; returning the error halts
		// the node loudly rather than silently losing a block's writes.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// Query serves read-only paths mirrored by internal/httpapi for clients
// that would rather poll JSON over HTTP than an ABCI query socket.
func (a *App) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.snap == nil {
		return &abci.QueryResponse{Code: 1, Log: "chain not initialized"}, nil
	}
	height := a.snap.Height
	core := a.snap.Core

	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/config":
		return jsonQueryResponse(core.Config, height)
	case path == "/game":
		return jsonQueryResponse(core.CurrentGame, height)
	case path == "/jackpot":
		return jsonQueryResponse(map[string]uint64{
			"jackpot":              core.Jackpot,
			"unclaimedPayouts":     core.UnclaimedPayouts,
			"accruedCommunityFees": core.AccruedCommunityFees,
		}, height)
	case strings.HasPrefix(path, "/round/"):
		id, err := strconv.ParseUint(strings.TrimPrefix(path, "/round/"), 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid round id", Height: height}, nil
		}
		round, ok := core.Rounds[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "round not found", Height: height}, nil
		}
		return jsonQueryResponse(round, height)
	case strings.HasPrefix(path, "/ticket/"):
		id, err := strconv.ParseUint(strings.TrimPrefix(path, "/ticket/"), 10, 64)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: "invalid ticket id", Height: height}, nil
		}
		ticket, ok := core.Tickets[id]
		if !ok {
			return &abci.QueryResponse{Code: 1, Log: "ticket not found", Height: height}, nil
		}
		return jsonQueryResponse(ticket, height)
	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		balance, err := a.collaborators.Ledger.BalanceOf(context.Background(), addr)
		if err != nil {
			return &abci.QueryResponse{Code: 1, Log: err.Error(), Height: height}, nil
		}
		return jsonQueryResponse(map[string]any{"addr": addr, "balance": balance}, height)
	default:
		return &abci.QueryResponse{Code: 1, Log: "unknown query path", Height: height}, nil
	}
}

func jsonQueryResponse(v any, height int64) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("app: encode query response: %w", err)
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: height}, nil
}

// deliverTx decodes and applies one transaction. Every mutating branch
// below runs against a clone of the committed snapshot (state.Snapshot.Clone)
// and only swaps a.snap for the clone once its operation has returned
// successfully, so a failure partway through (a checked-arithmetic overflow,
// a collaborator call erroring after earlier accounting already moved)
// discards the clone instead of leaving the committed snapshot half mutated.
func (a *App) deliverTx(txBytes []byte, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	clone, err := a.snap.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	switch env.Type {
	case codec.TypeRegisterAccount:
		msg, err := codec.DecodeRegisterAccount(env)
		if err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if err := requireRegisterAccountAuth(env, msg); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if existing := clone.AccountKeys[msg.Account]; len(existing) != 0 {
			if string(existing) != string(msg.PubKey) {
				return &abci.ExecTxResult{Code: 1, Log: "account pubKey already set (rotation not supported)"}
			}
			return okEvent("AccountKeyRegistered", map[string]string{"account": msg.Account, "existing": "true"})
		}
		clone.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		a.snap = clone
		return okEvent("AccountKeyRegistered", map[string]string{"account": msg.Account})

	case codec.TypePurchase, codec.TypeOwnerPick:
		msg, err := codec.DecodePurchase(env)
		if err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		tickets := make([]lottery.TicketInput, len(msg.Tickets))
		for i, t := range msg.Tickets {
			tickets[i] = lottery.TicketInput{Recipient: t.Recipient, Picks: t.Picks}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		var events []lottery.Event
		if env.Type == codec.TypeOwnerPick {
			_, events, err = eng.OwnerPick(context.Background(), env.Signer, tickets, nowUnix)
		} else {
			_, events, err = eng.Purchase(context.Background(), env.Signer, tickets, nowUnix)
		}
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvents(events)

	case codec.TypeSeedJackpot:
		msg, err := codec.DecodeSeedJackpot(env)
		if err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		events, err := eng.SeedJackpot(context.Background(), env.Signer, msg.Value, nowUnix)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvents(events)

	case codec.TypeDraw:
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		events, err := eng.Draw(context.Background(), nowUnix)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvents(events)

	case codec.TypeOnRandomness:
		msg, err := codec.DecodeOnRandomness(env)
		if err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		events, err := eng.OnRandomness(env.Signer, msg.RequestID, msg.Words, nowUnix)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvents(events)

	case codec.TypeClaimWinnings:
		msg, err := codec.DecodeClaimWinnings(env)
		if err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		_, events, err := eng.ClaimWinnings(context.Background(), env.Signer, msg.TicketID, nowUnix)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvents(events)

	case codec.TypeWithdrawAccruedFees:
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		amount, err := eng.WithdrawAccruedFees(context.Background(), env.Signer)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvent("AccruedFeesWithdrawn", map[string]string{
			"caller": env.Signer,
			"amount": fmt.Sprintf("%d", amount),
		})

	case codec.TypeKill:
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		if err := eng.Kill(env.Signer); err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvent("LotteryKilled", map[string]string{
			"apocalypseGameId": fmt.Sprintf("%d", clone.Core.ApocalypseGameID),
		})

	case codec.TypeRescueNativeCoin:
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		amount, err := eng.RescueNativeCoin(context.Background(), env.Signer)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvent("NativeCoinRescued", map[string]string{
			"caller": env.Signer,
			"amount": fmt.Sprintf("%d", amount),
		})

	case codec.TypeRescueToken:
		if err := requireAccountAuth(a.snap, env, env.Signer); err != nil {
			return &abci.ExecTxResult{Code: 1, Log: err.Error()}
		}
		eng := lottery.New(clone.Core, a.collaborators)
		amount, err := eng.RescueToken(context.Background(), env.Signer)
		if err != nil {
			return errResult(err)
		}
		a.snap = clone
		return okEvent("TokenRescued", map[string]string{
			"caller": env.Signer,
			"amount": fmt.Sprintf("%d", amount),
		})

	default:
		return &abci.ExecTxResult{Code: 1, Log: "unknown tx type: " + env.Type}
	}
}

// kindCodeBase offsets lottery.Kind values so they never collide with
// the generic decode/auth failure code (1).
const kindCodeBase = 100

func errResult(err error) *abci.ExecTxResult {
	var lotteryErr *lottery.Error
	if errors.As(err, &lotteryErr) {
		return &abci.ExecTxResult{Code: kindCodeBase + uint32(lotteryErr.Kind), Log: lotteryErr.Error()}
	}
	return &abci.ExecTxResult{Code: 1, Log: err.Error()}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	return &abci.ExecTxResult{Code: 0, Events: []abci.Event{toABCIEvent(lottery.Event{Type: typ, Attrs: attrs})}}
}

func okEvents(events []lottery.Event) *abci.ExecTxResult {
	out := make([]abci.Event, len(events))
	for i, ev := range events {
		out[i] = toABCIEvent(ev)
	}
	return &abci.ExecTxResult{Code: 0, Events: out}
}

// toABCIEvent converts a lottery.Event into an abci.Event with attributes
// sorted by key, so event ordering is deterministic across nodes despite
// Go's randomized map iteration.
func toABCIEvent(ev lottery.Event) abci.Event {
	out := abci.Event{Type: ev.Type}
	keys := make([]string, 0, len(ev.Attrs))
	for k := range ev.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out.Attributes = append(out.Attributes, abci.EventAttribute{Key: k, Value: ev.Attrs[k], Index: true})
	}
	return out
}
