// Package codec defines the wire format for lottery transactions: a
// JSON envelope wrapping one typed operation payload, dispatched by its
// Type field. Grounded directly on the teacher's
// apps/chain/internal/codec/tx.go.
package codec

import (
	"encoding/json"
	"fmt"
)

// TxEnvelope is the transaction container. CometBFT transactions are
// opaque bytes; JSON keeps the devnet encoding easy to construct and
// inspect, the same tradeoff the teacher's v0 envelope makes.
type TxEnvelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Nonce, Signer and Sig carry the auth scheme from internal/app/auth.go:
	// Nonce is included in the signed message for replay protection, Signer
	// is the logical signer id, and Sig is an Ed25519 signature over
	// (type, nonce, signer, sha256(value)).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

// Operation type strings, dispatched by internal/app's deliverTx.
const (
	TypeRegisterAccount     = "auth/register_account"
	TypePurchase            = "lootery/purchase"
	TypeOwnerPick           = "lootery/owner_pick"
	TypeSeedJackpot         = "lootery/seed_jackpot"
	TypeDraw                = "lootery/draw"
	TypeOnRandomness        = "lootery/on_randomness"
	TypeClaimWinnings       = "lootery/claim_winnings"
	TypeWithdrawAccruedFees = "lootery/withdraw_accrued_fees"
	TypeKill                = "lootery/kill"
	TypeRescueNativeCoin    = "lootery/rescue_native"
	TypeRescueToken         = "lootery/rescue_token"
)

// DecodeTxEnvelope unmarshals raw transaction bytes into a TxEnvelope.
// Structural-only: callers separately validate Type against the known
// set and unmarshal Value into the matching payload type.
func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// RegisterAccountTx is the payload for TypeRegisterAccount: one-time
// binding of a signer id to the Ed25519 public key its future
// transactions must be signed with.
type RegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"`
}

// TicketInput mirrors lottery.TicketInput for wire transport.
type TicketInput struct {
	Recipient string  `json:"recipient"`
	Picks     []uint8 `json:"picks"`
}

// PurchaseTx is the payload for TypePurchase and TypeOwnerPick.
type PurchaseTx struct {
	Tickets []TicketInput `json:"tickets"`
}

// SeedJackpotTx is the payload for TypeSeedJackpot.
type SeedJackpotTx struct {
	Value uint64 `json:"value"`
}

// DrawTx is the payload for TypeDraw; it carries no fields.
type DrawTx struct{}

// OnRandomnessTx is the payload for TypeOnRandomness.
type OnRandomnessTx struct {
	RequestID uint64   `json:"requestId"`
	Words     [][]byte `json:"words"`
}

// ClaimWinningsTx is the payload for TypeClaimWinnings.
type ClaimWinningsTx struct {
	TicketID uint64 `json:"ticketId"`
}

// WithdrawAccruedFeesTx is the payload for TypeWithdrawAccruedFees; it
// carries no fields.
type WithdrawAccruedFeesTx struct{}

// KillTx is the payload for TypeKill; it carries no fields.
type KillTx struct{}

// RescueNativeCoinTx is the payload for TypeRescueNativeCoin; it carries
// no fields.
type RescueNativeCoinTx struct{}

// RescueTokenTx is the payload for TypeRescueToken; it carries no fields
// beyond the envelope (one prize token per lottery instance).
type RescueTokenTx struct{}

// decode unmarshals env.Value into dst, wrapping any error with the
// envelope's declared type for diagnosability.
func decode(env TxEnvelope, dst any) error {
	if err := json.Unmarshal(env.Value, dst); err != nil {
		return fmt.Errorf("codec: decode %s payload: %w", env.Type, err)
	}
	return nil
}

// DecodeRegisterAccount decodes env.Value as a RegisterAccountTx.
func DecodeRegisterAccount(env TxEnvelope) (RegisterAccountTx, error) {
	var tx RegisterAccountTx
	err := decode(env, &tx)
	return tx, err
}

// DecodePurchase decodes env.Value as a PurchaseTx.
func DecodePurchase(env TxEnvelope) (PurchaseTx, error) {
	var tx PurchaseTx
	err := decode(env, &tx)
	return tx, err
}

// DecodeSeedJackpot decodes env.Value as a SeedJackpotTx.
func DecodeSeedJackpot(env TxEnvelope) (SeedJackpotTx, error) {
	var tx SeedJackpotTx
	err := decode(env, &tx)
	return tx, err
}

// DecodeOnRandomness decodes env.Value as an OnRandomnessTx.
func DecodeOnRandomness(env TxEnvelope) (OnRandomnessTx, error) {
	var tx OnRandomnessTx
	err := decode(env, &tx)
	return tx, err
}

// DecodeClaimWinnings decodes env.Value as a ClaimWinningsTx.
func DecodeClaimWinnings(env TxEnvelope) (ClaimWinningsTx, error) {
	var tx ClaimWinningsTx
	err := decode(env, &tx)
	return tx, err
}
