package dto

// ChallengeRequest is the request body for a login challenge.
type ChallengeRequest struct {
	Member string `json:"member" binding:"required,eth_addr"`
}

// ChallengeResponse carries the message the member must sign.
type ChallengeResponse struct {
	Member    string `json:"member"`
	Message   string `json:"message"`
	ExpiresAt int64  `json:"expires_at"` // Unix timestamp
}

// LoginRequest is the request body for member login.
type LoginRequest struct {
	Member    string `json:"member" binding:"required,eth_addr"`
	Signature string `json:"signature" binding:"required,hexbytes"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateWalletRequest is the request body for wallet creation. Threshold
// bounds are checked by the registry so they surface as MSW_001.
type CreateWalletRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=1000"`
	Members     []string `json:"members" binding:"dive,eth_addr"`
	Required    int      `json:"required"`
	Seed        uint64   `json:"seed"`
}

// SubmitTransactionRequest is the request body for a transaction proposal.
type SubmitTransactionRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Destination string `json:"destination" binding:"required,eth_addr"`
	Value       string `json:"value" binding:"omitempty,uint256"`    // decimal, defaults to 0
	Payload     string `json:"payload" binding:"omitempty,hexbytes"` // 0x-prefixed calldata
}

// GovernanceOperation describes one self-administration operation. Which
// fields are read depends on Kind.
type GovernanceOperation struct {
	Kind        string   `json:"kind" binding:"required,oneof=ADD_MEMBER REMOVE_MEMBER REPLACE_MEMBER CHANGE_MEMBERS CHANGE_METADATA"`
	Member      string   `json:"member,omitempty" binding:"omitempty,eth_addr"`
	Old         string   `json:"old,omitempty" binding:"omitempty,eth_addr"`
	New         string   `json:"new,omitempty" binding:"omitempty,eth_addr"`
	Additions   []string `json:"additions,omitempty" binding:"omitempty,dive,eth_addr"`
	Removals    []string `json:"removals,omitempty" binding:"omitempty,dive,eth_addr"`
	Name        string   `json:"name,omitempty" binding:"max=100"`
	Description string   `json:"description,omitempty" binding:"max=1000"`
}

// SubmitGovernanceRequest proposes a governance operation on the wallet.
type SubmitGovernanceRequest struct {
	Title       string              `json:"title" binding:"required,max=200"`
	Description string              `json:"description" binding:"max=2000"`
	Operation   GovernanceOperation `json:"operation" binding:"required"`
}

// EncodeResponse is the calldata for a governance operation.
type EncodeResponse struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

// WalletStateResponse is the wallet's current membership and metadata.
type WalletStateResponse struct {
	Handle           string   `json:"handle"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Creator          string   `json:"creator"`
	Seed             uint64   `json:"seed"`
	Members          []string `json:"members"`
	Required         int      `json:"required"`
	TransactionCount uint64   `json:"transaction_count"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// RegistryEntryResponse is the discovery view of a wallet.
type RegistryEntryResponse struct {
	Wallet      string `json:"wallet"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Creator     string `json:"creator"`
	CreatedAt   string `json:"created_at"`
}

// TransactionResponse is the response body for wallet transactions.
type TransactionResponse struct {
	Wallet        string   `json:"wallet"`
	ID            uint64   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Destination   string   `json:"destination"`
	Value         string   `json:"value"`
	Payload       string   `json:"payload"`
	Executed      bool     `json:"executed"`
	Status        string   `json:"status"`
	FailureReason *string  `json:"failure_reason,omitempty"`
	Confirmations []string `json:"confirmations"`
	SubmittedBy   string   `json:"submitted_by"`
	CreatedAt     string   `json:"created_at"`
	ExecutedAt    *string  `json:"executed_at,omitempty"`
}

// EventResponse is one entry of a wallet's event log.
type EventResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Wallet        string  `json:"wallet"`
	TransactionID *uint64 `json:"transaction_id,omitempty"`
	Member        *string `json:"member,omitempty"`
	Change        string  `json:"change,omitempty"`
	Detail        string  `json:"detail,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// MembersResponse lists a wallet's members in order.
type MembersResponse struct {
	Members []string `json:"members"`
}

// ConfirmationsResponse lists every recorded confirmation of a transaction.
type ConfirmationsResponse struct {
	Confirmations []string `json:"confirmations"`
}

// CountResponse wraps a single count.
type CountResponse struct {
	Count int64 `json:"count"`
}
