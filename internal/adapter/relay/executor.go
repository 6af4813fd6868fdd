package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Headers carried by every relayed call. The signature covers
// METHOD|PATH|TIMESTAMP|NONCE|BODY.
const (
	HeaderTimestamp = "X-Relay-Timestamp"
	HeaderNonce     = "X-Relay-Nonce"
	HeaderSignature = "X-Relay-Signature"
)

const maxErrorBody = 512

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// CallRequest is the JSON body posted to the relay.
type CallRequest struct {
	Wallet        string `json:"wallet"`
	TransactionID uint64 `json:"transaction_id"`
	Destination   string `json:"destination"`
	Value         string `json:"value"`
	Payload       string `json:"payload"`
}

// Executor hands non-self calls to an external relay over HTTP. Each call is
// attempted exactly once; a non-2xx response is an execution failure.
type Executor struct {
	url    string
	secret string
	client HTTPClient
	sigSvc ports.SignatureService
	log    zerolog.Logger
}

func NewExecutor(url, secret string, client HTTPClient, sigSvc ports.SignatureService, log zerolog.Logger) *Executor {
	return &Executor{
		url:    url,
		secret: secret,
		client: client,
		sigSvc: sigSvc,
		log:    log,
	}
}

// Call posts the call and waits for the relay's verdict.
func (e *Executor) Call(ctx context.Context, call domain.Call) error {
	body, err := json.Marshal(NewCallRequest(call))
	if err != nil {
		return fmt.Errorf("marshal call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	ts := time.Now().Unix()
	nonce := uuid.NewString()
	canonical := e.sigSvc.BuildCanonicalString(http.MethodPost, req.URL.Path, ts, nonce, string(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderNonce, nonce)
	req.Header.Set(HeaderSignature, e.sigSvc.Sign(e.secret, canonical))

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("relay rejected call: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	e.log.Info().
		Str("wallet", call.Wallet.Hex()).
		Uint64("tx_id", call.TransactionID).
		Str("destination", call.Destination.Hex()).
		Int("status", resp.StatusCode).
		Msg("call relayed")
	return nil
}

// NewCallRequest renders a call in the relay's wire format.
func NewCallRequest(call domain.Call) CallRequest {
	value := "0"
	if call.Value != nil {
		value = call.Value.String()
	}
	return CallRequest{
		Wallet:        call.Wallet.Hex(),
		TransactionID: call.TransactionID,
		Destination:   call.Destination.Hex(),
		Value:         value,
		Payload:       hexutil.Encode(call.Payload),
	}
}

// LoggingExecutor accepts every call and only logs it. Used when no relay is configured.
type LoggingExecutor struct {
	log zerolog.Logger
}

func NewLoggingExecutor(log zerolog.Logger) *LoggingExecutor {
	return &LoggingExecutor{log: log}
}

func (e *LoggingExecutor) Call(_ context.Context, call domain.Call) error {
	e.log.Info().
		Str("wallet", call.Wallet.Hex()).
		Uint64("tx_id", call.TransactionID).
		Str("destination", call.Destination.Hex()).
		Str("value", NewCallRequest(call).Value).
		Int("payload_bytes", len(call.Payload)).
		Msg("call accepted without relay")
	return nil
}
