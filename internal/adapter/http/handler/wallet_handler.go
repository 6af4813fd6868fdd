package handler

import (
	"context"

	"multisig-registry/internal/adapter/http/dto"
	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"
	"multisig-registry/pkg/response"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client key for retried submissions.
const HeaderIdempotencyKey = "Idempotency-Key"

// WalletHandler handles wallet state, transactions and governance.
type WalletHandler struct {
	walletSvc ports.WalletService
	codec     ports.GovernanceCodec
	maxPage   int
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService, codec ports.GovernanceCodec, maxPage int) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc, codec: codec, maxPage: maxPage}
}

// GetState handles GET /api/v1/wallets/:handle/state.
func (h *WalletHandler) GetState(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}

	w, err := h.walletSvc.GetWallet(c.Request.Context(), handle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletStateResponse(w))
}

// GetMembers handles GET /api/v1/wallets/:handle/members.
func (h *WalletHandler) GetMembers(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}

	members, err := h.walletSvc.GetMembers(c.Request.Context(), handle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.MembersResponse{Members: dto.ToMembers(members)})
}

// ListTransactions handles GET /api/v1/wallets/:handle/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}
	offset, limit, err := pagination(c, h.maxPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	params := ports.TransactionListParams{Wallet: handle, Offset: offset, Limit: limit}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		switch status {
		case domain.TransactionStatusPending, domain.TransactionStatusExecuted, domain.TransactionStatusFailed:
			params.Status = &status
		default:
			response.Error(c, apperror.Validation("status must be PENDING, EXECUTED or FAILED"))
			return
		}
	}

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, dto.ToTransactionResponses(txns), total, offset, limit)
}

// Submit handles POST /api/v1/wallets/:handle/transactions.
func (h *WalletHandler) Submit(c *gin.Context) {
	member, err := caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	value, _ := dto.ParseUint256(req.Value)
	var payload []byte
	if req.Payload != "" {
		if payload, err = hexutil.Decode(req.Payload); err != nil {
			response.Error(c, apperror.Validation("payload: "+err.Error()))
			return
		}
	}

	txn, err := h.walletSvc.Submit(c.Request.Context(), ports.SubmitRequest{
		Wallet:         handle,
		Title:          req.Title,
		Description:    req.Description,
		Destination:    common.HexToAddress(req.Destination),
		Value:          value,
		Payload:        payload,
		Submitter:      member,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransactionResponse(txn))
}

// GetTransaction handles GET /api/v1/wallets/:handle/transactions/:id.
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := txIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.walletSvc.GetTransaction(c.Request.Context(), handle, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransactionResponse(txn))
}

// GetConfirmations handles GET /api/v1/wallets/:handle/transactions/:id/confirmations.
func (h *WalletHandler) GetConfirmations(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := txIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	confs, err := h.walletSvc.GetConfirmations(c.Request.Context(), handle, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ConfirmationsResponse{Confirmations: dto.ToMembers(confs)})
}

type txTransition func(ctx context.Context, handle common.Address, id uint64, member domain.Member) (*domain.Transaction, error)

func (h *WalletHandler) transition(c *gin.Context, action txTransition) {
	handle, id, member, err := walletTxParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	txn, err := action(c.Request.Context(), handle, id, member)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToTransactionResponse(txn))
}

// Confirm handles POST /api/v1/wallets/:handle/transactions/:id/confirm.
func (h *WalletHandler) Confirm(c *gin.Context) { h.transition(c, h.walletSvc.Confirm) }

// Revoke handles POST /api/v1/wallets/:handle/transactions/:id/revoke.
func (h *WalletHandler) Revoke(c *gin.Context) { h.transition(c, h.walletSvc.Revoke) }

// Execute handles POST /api/v1/wallets/:handle/transactions/:id/execute.
func (h *WalletHandler) Execute(c *gin.Context) { h.transition(c, h.walletSvc.Execute) }

// SubmitGovernance handles POST /api/v1/wallets/:handle/governance.
func (h *WalletHandler) SubmitGovernance(c *gin.Context) {
	member, err := caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.SubmitGovernanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	op, err := req.Operation.ToDomain()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.walletSvc.SubmitGovernance(c.Request.Context(), ports.GovernanceRequest{
		Wallet:         handle,
		Title:          req.Title,
		Description:    req.Description,
		Operation:      op,
		Submitter:      member,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToTransactionResponse(txn))
}

// EncodeGovernance handles POST /api/v1/governance/encode.
func (h *WalletHandler) EncodeGovernance(c *gin.Context) {
	var req dto.GovernanceOperation
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	op, err := req.ToDomain()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	payload, err := h.codec.Encode(op)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	response.OK(c, dto.EncodeResponse{Kind: string(op.Kind()), Payload: hexutil.Encode(payload)})
}

// ListEvents handles GET /api/v1/wallets/:handle/events.
func (h *WalletHandler) ListEvents(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}
	offset, limit, err := pagination(c, h.maxPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, total, err := h.walletSvc.ListEvents(c.Request.Context(), handle, offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, dto.ToEventResponses(events), total, offset, limit)
}
