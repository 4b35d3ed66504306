// Package state adds disk persistence and a deterministic content hash on
// top of the lottery core, the same role the teacher's internal/state
// package plays for its poker/bank state: a thin JSON snapshot with
// Load/Save/Clone/AppHash, kept separate from the pure game logic.
package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/lootopgf/lootery-go/internal/lottery"
)

// fileName is the snapshot's file name inside the home directory, mirroring
// the teacher's single-file JSON state convention.
const fileName = "lootery-state.json"

// Snapshot is the full persisted view of one lottery: the core's State
// plus the height of the last committed block. It has no concurrency
// control of its own; callers (internal/app) serialize access.
type Snapshot struct {
	Height int64          `json:"height"`
	Core   *lottery.State `json:"core"`

	// AccountKeys holds the Ed25519 public key registered for each signer
	// id, the same tx-auth scaffold the teacher's app layer keeps
	// alongside its game state rather than inside it.
	AccountKeys map[string][]byte `json:"accountKeys"`
}

// New builds a genesis snapshot for cfg.
func New(cfg lottery.Config, now int64) (*Snapshot, error) {
	core, err := lottery.NewState(cfg, now)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Height: 0, Core: core, AccountKeys: map[string][]byte{}}, nil
}

// Load reads the snapshot from home, or reports os.IsNotExist for a fresh
// home directory (the caller should then build genesis state via New).
func Load(home string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(home, fileName))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("state: decode %s: %w", fileName, err)
	}
	return &snap, nil
}

// Save writes the snapshot to home, creating the directory if needed.
func (s *Snapshot) Save(home string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("state: mkdir %s: %w", home, err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	tmp := filepath.Join(home, fileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("state: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, filepath.Join(home, fileName))
}

// Clone deep-copies the snapshot via a JSON round trip, the same
// technique the teacher's state.Clone uses, so speculative execution of
// one transaction can be discarded without mutating the committed
// snapshot on failure. internal/app.App.deliverTx calls this once per
// transaction and only keeps the clone on success.
func (s *Snapshot) Clone() (*Snapshot, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("state: clone encode: %w", err)
	}
	var clone Snapshot
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("state: clone decode: %w", err)
	}
	return &clone, nil
}

// AppHash returns a deterministic content hash of the snapshot. Go's map
// iteration order is randomized, so every map-valued field is first
// normalized into a sorted slice before hashing; this mirrors the
// teacher's own AppHash technique line for line.
func (s *Snapshot) AppHash() ([]byte, error) {
	normalized := struct {
		Height int64              `json:"height"`
		Config lottery.Config     `json:"config"`
		Game   lottery.CurrentGame `json:"game"`

		Rounds []roundEntry  `json:"rounds"`
		Tickets []ticketEntry `json:"tickets"`
		Index   []indexEntry  `json:"index"`

		NextTicketID uint64                    `json:"nextTicketId"`
		Randomness   lottery.RandomnessRequest `json:"randomness"`

		Jackpot              uint64 `json:"jackpot"`
		UnclaimedPayouts     uint64 `json:"unclaimedPayouts"`
		AccruedCommunityFees uint64 `json:"accruedCommunityFees"`
		ApocalypseGameID     uint64 `json:"apocalypseGameId"`
		LastSeededAt         int64  `json:"lastSeededAt"`

		AccountKeys []accountKeyEntry `json:"accountKeys"`
	}{
		Height: s.Height,
		Config: s.Core.Config,
		Game:   s.Core.CurrentGame,

		NextTicketID: s.Core.NextTicketID,
		Randomness:   s.Core.Randomness,

		Jackpot:              s.Core.Jackpot,
		UnclaimedPayouts:     s.Core.UnclaimedPayouts,
		AccruedCommunityFees: s.Core.AccruedCommunityFees,
		ApocalypseGameID:     s.Core.ApocalypseGameID,
		LastSeededAt:         s.Core.LastSeededAt,
	}

	for id, r := range s.Core.Rounds {
		normalized.Rounds = append(normalized.Rounds, roundEntry{ID: id, Round: *r})
	}
	sort.Slice(normalized.Rounds, func(i, j int) bool { return normalized.Rounds[i].ID < normalized.Rounds[j].ID })

	for id, t := range s.Core.Tickets {
		normalized.Tickets = append(normalized.Tickets, ticketEntry{ID: id, Ticket: *t})
	}
	sort.Slice(normalized.Tickets, func(i, j int) bool { return normalized.Tickets[i].ID < normalized.Tickets[j].ID })

	for k, ids := range s.Core.RoundIndex {
		sortedIDs := append([]uint64(nil), ids...)
		sort.Slice(sortedIDs, func(i, j int) bool { return sortedIDs[i] < sortedIDs[j] })
		normalized.Index = append(normalized.Index, indexEntry{Key: k, TicketIDs: sortedIDs})
	}
	sort.Slice(normalized.Index, func(i, j int) bool { return normalized.Index[i].Key < normalized.Index[j].Key })

	for account, pubKey := range s.AccountKeys {
		normalized.AccountKeys = append(normalized.AccountKeys, accountKeyEntry{Account: account, PubKey: pubKey})
	}
	sort.Slice(normalized.AccountKeys, func(i, j int) bool { return normalized.AccountKeys[i].Account < normalized.AccountKeys[j].Account })

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("state: apphash encode: %w", err)
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

type roundEntry struct {
	ID    uint64        `json:"id"`
	Round lottery.Round `json:"round"`
}

type ticketEntry struct {
	ID     uint64         `json:"id"`
	Ticket lottery.Ticket `json:"ticket"`
}

type indexEntry struct {
	Key       string   `json:"key"`
	TicketIDs []uint64 `json:"ticketIds"`
}

type accountKeyEntry struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"`
}
