package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backoffice/internal/authz"
	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

type AuditHandler struct {
	auditService service.AuditService
	log          *zap.Logger
}

func NewAuditHandler(auditService service.AuditService, log *zap.Logger) *AuditHandler {
	return &AuditHandler{auditService: auditService, log: log}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequireAnyRole(authz.RoleAdmin), h.GetAuditLogs)
	router.GET("/api/allocation-requests/:id/history", h.GetRequestHistory)
}

// GetAuditLogs retrieves paginated workflow audit entries, newest first
// @Summary      Get audit logs
// @Description  Retrieves every allocation workflow audit entry
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), middleware.ActorFromGin(c), p.Page, p.Limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": p.Meta(total),
	}))
}

// GetRequestHistory lists the audit trail of one allocation request
// @Summary      Get allocation request history
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Allocation request ID"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/allocation-requests/{id}/history [get]
func (h *AuditHandler) GetRequestHistory(c *gin.Context) {
	history, err := h.auditService.GetRequestHistory(c.Request.Context(), middleware.ActorFromGin(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
