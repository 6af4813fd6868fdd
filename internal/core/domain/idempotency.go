package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// IdempotencyLog caches the result of a submission so a retried request with
// the same key returns the original transaction instead of proposing twice.
type IdempotencyLog struct {
	Key           string         `json:"key"` // Format: "wallet:member:client_key"
	Wallet        common.Address `json:"wallet"`
	TransactionID uint64         `json:"transaction_id"`
	ResponseJSON  []byte         `json:"response_json"`
	CreatedAt     time.Time      `json:"created_at"`
}

// BuildSubmissionIdempotencyKey scopes a client-supplied key to the wallet and
// the submitting member.
func BuildSubmissionIdempotencyKey(wallet common.Address, submitter Member, clientKey string) string {
	return wallet.Hex() + ":" + submitter.Hex() + ":" + clientKey
}
