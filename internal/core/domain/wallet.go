package domain

import (
	"errors"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ErrHandleCollision is returned when a derived handle is already taken.
var ErrHandleCollision = errors.New("wallet handle already exists")

// Wallet is a multi-party authorization wallet: an ordered member set and a
// confirmation threshold jointly controlling submitted transactions.
type Wallet struct {
	Handle           common.Address `json:"handle"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	Creator          Member         `json:"creator"`
	Seed             uint64         `json:"seed"`
	Members          []Member       `json:"members"`
	Required         int            `json:"required"`
	TransactionCount uint64         `json:"transaction_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsMember reports whether m currently belongs to the wallet.
func (w *Wallet) IsMember(m Member) bool {
	return slices.Contains(w.Members, m)
}

// IndexOf returns m's position in Members, or -1.
func (w *Wallet) IndexOf(m Member) int {
	return slices.Index(w.Members, m)
}

// Validate checks the membership invariants.
func (w *Wallet) Validate() error {
	return ValidateMembership(w.Members, w.Required)
}

// NextTransactionID allocates the next transaction id.
func (w *Wallet) NextTransactionID() uint64 {
	id := w.TransactionCount
	w.TransactionCount++
	return id
}

// Clone returns a deep copy safe to mutate.
func (w *Wallet) Clone() *Wallet {
	c := *w
	c.Members = slices.Clone(w.Members)
	return &c
}

// Entry returns the registry view of the wallet.
func (w *Wallet) Entry() RegistryEntry {
	return RegistryEntry{
		Wallet:      w.Handle,
		Name:        w.Name,
		Description: w.Description,
		Creator:     w.Creator,
		CreatedAt:   w.CreatedAt,
	}
}

// RegistryEntry is the discovery metadata recorded for every created wallet.
type RegistryEntry struct {
	Wallet      common.Address `json:"wallet"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Creator     Member         `json:"creator"`
	CreatedAt   time.Time      `json:"created_at"`
}
