package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"backoffice/internal/authz"
	"backoffice/internal/service"
)

type fakeAudit struct {
	page, limit int
}

func (f *fakeAudit) GetAuditLogs(_ context.Context, _ *authz.Actor, page, limit int) ([]service.AuditLogResponse, int64, error) {
	f.page, f.limit = page, limit
	return []service.AuditLogResponse{{Action: "SUBMIT_ALLOCATION_REQUESTS"}}, 1, nil
}

func (f *fakeAudit) GetRequestHistory(_ context.Context, _ *authz.Actor, id string) ([]service.AuditLogResponse, error) {
	if id != "req-1" {
		return nil, fmt.Errorf("%w: allocation request %s", service.ErrNotFound, id)
	}
	return []service.AuditLogResponse{{EntityID: id, Action: "CREATE_ALLOCATION_REQUEST"}}, nil
}

func auditRouter(t *testing.T, svc service.AuditService, actor *authz.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuditHandler(svc, zaptest.NewLogger(t)).RegisterRoutes(r.Group("/", withActor(actor)))
	return r
}

func TestAuditLogsAreAdminOnly(t *testing.T) {
	svc := &fakeAudit{}

	w := httptest.NewRecorder()
	auditRouter(t, svc, allocator).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/audit-logs", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	admin := &authz.Actor{ID: "admin-1", Role: authz.RoleAdmin}
	auditRouter(t, svc, admin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/audit-logs?page=3&limit=500", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, svc.page)
	assert.Equal(t, 100, svc.limit)
}

func TestRequestHistory(t *testing.T) {
	r := auditRouter(t, &fakeAudit{}, reviewer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/allocation-requests/req-1/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []service.AuditLogResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, "CREATE_ALLOCATION_REQUEST", env.Data[0].Action)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/allocation-requests/other/history", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
