package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backoffice/internal/authz"
	"backoffice/internal/middleware"
	"backoffice/internal/storage"
)

type EvidenceHandler struct {
	store storage.EvidenceStore
	log   *zap.Logger
}

func NewEvidenceHandler(store storage.EvidenceStore, log *zap.Logger) *EvidenceHandler {
	return &EvidenceHandler{store: store, log: log}
}

func (h *EvidenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/evidence/:id", middleware.RequireAnyRole(authz.WorkflowRoles...), h.DownloadEvidence)
}

// DownloadEvidence streams a stored evidence file
// @Summary      Download evidence
// @Tags         evidence
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id   path  string  true  "Evidence file ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /api/evidence/{id} [get]
func (h *EvidenceHandler) DownloadEvidence(c *gin.Context) {
	obj, err := h.store.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	defer obj.Close()

	headers := map[string]string{
		"Content-Disposition": mime.FormatMediaType("inline", map[string]string{"filename": obj.Name}),
	}
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj, headers)
}
