package handler

import (
	"net/http"

	"multisig-registry/internal/adapter/http/dto"
	"multisig-registry/internal/adapter/http/middleware"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"
	"multisig-registry/pkg/response"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles member authentication endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Challenge handles POST /api/v1/auth/challenge.
func (h *AuthHandler) Challenge(c *gin.Context) {
	var req dto.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ch, err := h.authSvc.Challenge(c.Request.Context(), common.HexToAddress(req.Member))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ChallengeResponse{
		Member:    ch.Member.Hex(),
		Message:   ch.Message,
		ExpiresAt: ch.ExpiresAt.Unix(),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		response.Error(c, apperror.Validation("signature: "+err.Error()))
		return
	}

	member := common.HexToAddress(req.Member)
	token, expiry, err := h.authSvc.Login(c.Request.Context(), member, sig)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxMember, member)
	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// HealthCheck handles GET /health by pinging every dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
