package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const auditHandle = "0x5A11E70000000000000000000000000000000001"

func setupAuditRouter(t *testing.T, status int) (*gin.Engine, *mocks.MockAuditService) {
	ctrl := gomock.NewController(t)
	auditSvc := mocks.NewMockAuditService(ctrl)

	authed := func(c *gin.Context) {
		c.Set(CtxMember, testMember)
		c.Status(status)
	}

	r := gin.New()
	r.Use(AuditLog(auditSvc))
	r.POST("/api/v1/auth/login", func(c *gin.Context) { c.Status(status) })
	r.POST("/api/v1/wallets", func(c *gin.Context) {
		c.Set(CtxMember, testMember)
		c.Set(CtxResourceID, auditHandle)
		c.Status(status)
	})
	r.POST("/api/v1/wallets/:handle/transactions", authed)
	r.POST("/api/v1/wallets/:handle/transactions/:id/confirm", authed)
	r.POST("/api/v1/wallets/:handle/transactions/:id/revoke", authed)
	r.POST("/api/v1/wallets/:handle/transactions/:id/execute", authed)
	r.GET("/api/v1/wallets/:handle", authed)
	return r, auditSvc
}

func TestAuditLog_RecordsWrites(t *testing.T) {
	tests := []struct {
		path       string
		action     domain.AuditAction
		resource   string
		resourceID string
		withMember bool
	}{
		{"/api/v1/auth/login", domain.AuditActionLogin, "session", "", false},
		{"/api/v1/wallets", domain.AuditActionCreateWallet, "wallet", auditHandle, true},
		{"/api/v1/wallets/" + auditHandle + "/transactions", domain.AuditActionSubmit, "transaction", auditHandle, true},
		{"/api/v1/wallets/" + auditHandle + "/transactions/3/confirm", domain.AuditActionConfirm, "transaction", auditHandle + "/3", true},
		{"/api/v1/wallets/" + auditHandle + "/transactions/3/revoke", domain.AuditActionRevoke, "transaction", auditHandle + "/3", true},
		{"/api/v1/wallets/" + auditHandle + "/transactions/4/execute", domain.AuditActionExecute, "transaction", auditHandle + "/4", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			r, auditSvc := setupAuditRouter(t, http.StatusOK)

			var got *domain.AuditLog
			auditSvc.EXPECT().Log(gomock.Any(), gomock.Any()).Do(func(_ context.Context, entry *domain.AuditLog) {
				got = entry
			})

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			req.RemoteAddr = "192.0.2.7:5555"
			r.ServeHTTP(httptest.NewRecorder(), req)

			require.NotNil(t, got)
			assert.Equal(t, tt.action, got.Action)
			assert.Equal(t, tt.resource, got.ResourceType)
			assert.Equal(t, tt.resourceID, got.ResourceID)
			assert.Equal(t, "192.0.2.7", got.IPAddress)
			assert.Contains(t, got.Details, `"status":200`)
			if tt.withMember {
				require.NotNil(t, got.Member)
				assert.Equal(t, testMember, *got.Member)
			} else {
				assert.Nil(t, got.Member)
			}
		})
	}
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	r, _ := setupAuditRouter(t, http.StatusBadRequest)
	// no Log expectation: gomock fails the test on an unexpected call
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/wallets/"+auditHandle+"/transactions", nil))
}

func TestAuditLog_SkipsReads(t *testing.T) {
	r, _ := setupAuditRouter(t, http.StatusOK)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wallets/"+auditHandle, nil))
}
