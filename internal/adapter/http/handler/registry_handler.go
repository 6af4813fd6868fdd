package handler

import (
	"multisig-registry/internal/adapter/http/dto"
	"multisig-registry/internal/adapter/http/middleware"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"
	"multisig-registry/pkg/response"

	"github.com/gin-gonic/gin"
)

// RegistryHandler handles wallet creation and discovery.
type RegistryHandler struct {
	registrySvc ports.RegistryService
	maxPage     int
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registrySvc ports.RegistryService, maxPage int) *RegistryHandler {
	return &RegistryHandler{registrySvc: registrySvc, maxPage: maxPage}
}

// Create handles POST /api/v1/wallets. The caller becomes the creator.
func (h *RegistryHandler) Create(c *gin.Context) {
	creator, err := caller(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	w, err := h.registrySvc.Create(c.Request.Context(), ports.CreateWalletRequest{
		Name:        req.Name,
		Description: req.Description,
		Members:     dto.ParseMembers(req.Members),
		Required:    req.Required,
		Seed:        req.Seed,
		Creator:     creator,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, w.Handle.Hex())
	response.Created(c, dto.ToWalletStateResponse(w))
}

// GetInfo handles GET /api/v1/wallets/:handle.
func (h *RegistryHandler) GetInfo(c *gin.Context) {
	handle, err := addressParam(c, "handle")
	if err != nil {
		response.Error(c, err)
		return
	}

	entry, err := h.registrySvc.GetWalletInfo(c.Request.Context(), handle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToRegistryEntryResponse(*entry))
}

// WalletsForMember handles GET /api/v1/members/:address/wallets.
func (h *RegistryHandler) WalletsForMember(c *gin.Context) {
	member, err := addressParam(c, "address")
	if err != nil {
		response.Error(c, err)
		return
	}
	offset, limit, err := pagination(c, h.maxPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	entries, err := h.registrySvc.GetWalletsForMember(ctx, member, offset, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.registrySvc.GetNumberOfWalletsForMember(ctx, member)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Page(c, dto.ToRegistryEntryResponses(entries), total, offset, limit)
}

// CountForMember handles GET /api/v1/members/:address/wallets/count.
func (h *RegistryHandler) CountForMember(c *gin.Context) {
	member, err := addressParam(c, "address")
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.registrySvc.GetNumberOfWalletsForMember(c.Request.Context(), member)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.CountResponse{Count: count})
}
