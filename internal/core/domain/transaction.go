package domain

import (
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionStatus is derived from the executed flag and the outcome of the
// single execution attempt.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusExecuted TransactionStatus = "EXECUTED"
	TransactionStatusFailed   TransactionStatus = "FAILED"
)

// Transaction is a proposed call from a wallet to a destination.
// Destination, value and payload are immutable once submitted.
type Transaction struct {
	Wallet        common.Address `json:"wallet"`
	ID            uint64         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Destination   common.Address `json:"destination"`
	Value         *big.Int       `json:"value"`
	Payload       []byte         `json:"payload"`
	Executed      bool           `json:"executed"`
	FailureReason *string        `json:"failure_reason,omitempty"`
	Confirmations []Member       `json:"confirmations"`
	SubmittedBy   Member         `json:"submitted_by"`
	CreatedAt     time.Time      `json:"created_at"`
	ExecutedAt    *time.Time     `json:"executed_at,omitempty"`
}

// Status returns the lifecycle state.
func (t *Transaction) Status() TransactionStatus {
	switch {
	case !t.Executed:
		return TransactionStatusPending
	case t.FailureReason != nil:
		return TransactionStatusFailed
	default:
		return TransactionStatusExecuted
	}
}

// IsSelfCall reports whether the transaction targets its own wallet, which is
// the only path governance operations are honored on.
func (t *Transaction) IsSelfCall() bool {
	return t.Destination == t.Wallet
}

// IsConfirmedBy reports whether m has a recorded confirmation.
func (t *Transaction) IsConfirmedBy(m Member) bool {
	return slices.Contains(t.Confirmations, m)
}

// Confirm records m's confirmation. Returns false if it was already present.
func (t *Transaction) Confirm(m Member) bool {
	if t.IsConfirmedBy(m) {
		return false
	}
	t.Confirmations = append(t.Confirmations, m)
	return true
}

// Revoke removes m's confirmation. Returns false if there was none.
func (t *Transaction) Revoke(m Member) bool {
	i := slices.Index(t.Confirmations, m)
	if i < 0 {
		return false
	}
	t.Confirmations = slices.Delete(t.Confirmations, i, i+1)
	return true
}

// LiveConfirmations counts confirmations from members still in the wallet.
// Confirmations of removed members are kept but never counted.
func (t *Transaction) LiveConfirmations(members []Member) int {
	n := 0
	for _, c := range t.Confirmations {
		if slices.Contains(members, c) {
			n++
		}
	}
	return n
}

// QuorumReached reports whether the wallet's current membership has confirmed
// the transaction at least required times.
func (t *Transaction) QuorumReached(w *Wallet) bool {
	return t.LiveConfirmations(w.Members) >= w.Required
}

// MarkExecuted flips the executed flag. It must happen before the destination
// is invoked so a reentrant attempt observes the transaction as executed.
func (t *Transaction) MarkExecuted(at time.Time) {
	t.Executed = true
	t.ExecutedAt = &at
}

// MarkFailed records the reason the execution attempt failed.
func (t *Transaction) MarkFailed(reason string) {
	t.FailureReason = &reason
}

// Clone returns a deep copy safe to mutate.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.Confirmations = slices.Clone(t.Confirmations)
	c.Payload = slices.Clone(t.Payload)
	if t.Value != nil {
		c.Value = new(big.Int).Set(t.Value)
	}
	return &c
}

// Call is the request handed to the execution environment for a non-self
// destination.
type Call struct {
	Wallet        common.Address `json:"wallet"`
	TransactionID uint64         `json:"transaction_id"`
	Destination   common.Address `json:"destination"`
	Value         *big.Int       `json:"value"`
	Payload       []byte         `json:"payload"`
}

// Call builds the execution request for the transaction.
func (t *Transaction) Call() Call {
	return Call{
		Wallet:        t.Wallet,
		TransactionID: t.ID,
		Destination:   t.Destination,
		Value:         t.Value,
		Payload:       t.Payload,
	}
}
