package ports

import (
	"context"
	"math/big"
	"time"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
)

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
	BuildCanonicalString(method, path string, timestamp int64, nonce string, body string) string
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(member domain.Member) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Member domain.Member
}

// IdempotencyCache is the Redis-layer idempotency check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ChallengeStore keeps one outstanding login challenge per member.
type ChallengeStore interface {
	Put(ctx context.Context, member domain.Member, challenge string, ttl time.Duration) error
	// Take returns and deletes the member's challenge. Returns "" if none is outstanding.
	Take(ctx context.Context, member domain.Member) (string, error)
}

// --- EVM Ports ---

// GovernanceCodec translates between governance operations and transaction payloads.
type GovernanceCodec interface {
	Encode(op domain.GovernanceOp) ([]byte, error)
	Decode(payload []byte) (domain.GovernanceOp, error)
}

// HandleDeriver computes the deterministic wallet handle for (creator, seed).
type HandleDeriver interface {
	Derive(creator domain.Member, seed uint64) common.Address
}

// SignerRecoverer recovers the account that produced a personal-message signature.
type SignerRecoverer interface {
	Recover(message []byte, signature []byte) (domain.Member, error)
}

// CallExecutor invokes a non-self destination. It is called at most once per
// transaction, after the executed flag has been committed.
type CallExecutor interface {
	Call(ctx context.Context, call domain.Call) error
}

// --- Event Ports ---

// EventPublisher fans committed events out to every sink.
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event)
}

// EventSink receives published events.
type EventSink interface {
	Name() string
	Deliver(ctx context.Context, event domain.Event) error
}

// AuditService records audit entries.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// --- Service Ports (Business Logic) ---

// WalletFactory instantiates a wallet inside the registry's storage transaction.
type WalletFactory interface {
	Instantiate(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// MembershipNotifier is the registry side of the wallet-to-registry contract.
// The wallet calls it synchronously inside its own storage transaction.
type MembershipNotifier interface {
	OnMemberAdded(ctx context.Context, tx pgx.Tx, wallet common.Address, member domain.Member) error
	OnMemberRemoved(ctx context.Context, tx pgx.Tx, wallet common.Address, member domain.Member) error
	OnMetadataChanged(ctx context.Context, tx pgx.Tx, wallet common.Address, name, description string) error
}

// WalletService defines the confirmation state machine of a wallet.
type WalletService interface {
	WalletFactory
	Submit(ctx context.Context, req SubmitRequest) (*domain.Transaction, error)
	SubmitGovernance(ctx context.Context, req GovernanceRequest) (*domain.Transaction, error)
	Confirm(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error)
	Revoke(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error)
	Execute(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error)
	GetWallet(ctx context.Context, handle common.Address) (*domain.Wallet, error)
	GetMembers(ctx context.Context, handle common.Address) ([]domain.Member, error)
	GetTransaction(ctx context.Context, handle common.Address, id uint64) (*domain.Transaction, error)
	GetConfirmations(ctx context.Context, handle common.Address, id uint64) ([]domain.Member, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	ListEvents(ctx context.Context, handle common.Address, offset, limit int) ([]domain.Event, int64, error)
}

// SubmitRequest holds validated input for a transaction proposal.
type SubmitRequest struct {
	Wallet         common.Address
	Title          string
	Description    string
	Destination    common.Address
	Value          *big.Int
	Payload        []byte
	Submitter      domain.Member
	IdempotencyKey string // optional
}

// GovernanceRequest proposes a self-administration operation.
type GovernanceRequest struct {
	Wallet         common.Address
	Title          string
	Description    string
	Operation      domain.GovernanceOp
	Submitter      domain.Member
	IdempotencyKey string // optional
}

// RegistryService defines wallet creation and discovery.
type RegistryService interface {
	Create(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	GetWalletsForMember(ctx context.Context, member domain.Member, offset, limit int) ([]domain.RegistryEntry, error)
	GetNumberOfWalletsForMember(ctx context.Context, member domain.Member) (int64, error)
	GetWalletInfo(ctx context.Context, handle common.Address) (*domain.RegistryEntry, error)
}

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	Name        string
	Description string
	Members     []domain.Member
	Required    int
	Seed        uint64
	Creator     domain.Member
}

// AuthService defines member authentication by signed challenge.
type AuthService interface {
	Challenge(ctx context.Context, member domain.Member) (*Challenge, error)
	Login(ctx context.Context, member domain.Member, signature []byte) (string, time.Time, error) // token, expiry, error
}

// Challenge is the message a member signs to log in.
type Challenge struct {
	Member    domain.Member
	Message   string
	ExpiresAt time.Time
}

// HealthChecker reports whether a backend can serve requests.
type HealthChecker interface {
	Ping(ctx context.Context) error // nil when healthy
	Name() string
}
