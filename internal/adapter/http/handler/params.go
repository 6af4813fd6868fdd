package handler

import (
	"strconv"

	"multisig-registry/internal/adapter/http/middleware"
	"multisig-registry/internal/core/domain"
	"multisig-registry/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const (
	defaultLimit    = 20
	defaultMaxLimit = 100
)

// addressParam reads a hex address from a path parameter.
func addressParam(c *gin.Context, name string) (common.Address, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, apperror.Validation(name + " must be a hex address")
	}
	return common.HexToAddress(raw), nil
}

func txIDParam(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, apperror.Validation("id must be a non-negative integer")
	}
	return id, nil
}

// pagination reads offset and limit query values, capping limit at maxLimit.
// Negative values are passed through so the service reports them.
func pagination(c *gin.Context, maxLimit int) (int, int, error) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, apperror.Validation("offset must be an integer")
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		return 0, 0, apperror.Validation("limit must be an integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return offset, limit, nil
}

// caller returns the member authenticated by middleware.JWTAuth.
func caller(c *gin.Context) (domain.Member, error) {
	m, ok := middleware.Member(c)
	if !ok {
		return domain.Member{}, apperror.ErrInvalidToken()
	}
	return m, nil
}

// walletTxParams reads the :handle and :id path parameters plus the caller.
func walletTxParams(c *gin.Context) (common.Address, uint64, domain.Member, error) {
	member, err := caller(c)
	if err != nil {
		return common.Address{}, 0, domain.Member{}, err
	}
	handle, err := addressParam(c, "handle")
	if err != nil {
		return common.Address{}, 0, domain.Member{}, err
	}
	id, err := txIDParam(c)
	if err != nil {
		return common.Address{}, 0, domain.Member{}, err
	}
	return handle, id, member, nil
}
