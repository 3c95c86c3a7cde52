package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backoffice/internal/authz"
	"backoffice/internal/middleware"
	"backoffice/internal/scanner"
	"backoffice/internal/service"
	"backoffice/internal/workflow"
	"backoffice/pkg/pagination"
	"backoffice/pkg/response"
)

// ScanJobs runs duplicate scans in the background.
type ScanJobs interface {
	StartScan(ctx context.Context, in workflow.ScanInput) (string, error)
	ScanStatus(ctx context.Context, id string) (workflow.JobStatus, error)
}

type AllocationHandler struct {
	allocationService service.AllocationService
	jobs              ScanJobs
	log               *zap.Logger
}

// NewAllocationHandler wires the allocation routes. jobs may be nil, in which case
// the scan-jobs routes are not registered.
func NewAllocationHandler(allocationService service.AllocationService, jobs ScanJobs, log *zap.Logger) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService, jobs: jobs, log: log}
}

func (h *AllocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/allocation-requests")
	{
		group.POST("", h.CreateAllocationRequest)
		group.GET("", h.ListAllocationRequests)
		group.GET("/:id", h.GetAllocationRequest)
		group.PUT("/:id/review", h.ReviewAllocationRequest)

		group.POST("/submit", h.BulkSubmit)
		group.POST("/allocate", h.BulkAllocate)
		group.POST("/mark-duplicate", h.BulkMarkDuplicate)

		group.POST("/scan", h.ScanForDuplicates)
		if h.jobs != nil {
			group.POST("/scan-jobs", h.StartScanJob)
			group.GET("/scan-jobs/:id",
				middleware.RequireAnyRole(authz.RoleAdmin, authz.RoleEftAllocator, authz.RoleEasypayAllocator),
				h.GetScanJob)
		}
	}
}

// CreateAllocationRequest godoc
// @Summary      Create allocation request
// @Description  Requests that an unallocated EFT or EasyPay transaction be allocated to a policy. Evidence files are optional.
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        transaction_id    formData  string  true   "Upstream transaction id"
// @Param        transaction_type  formData  string  true   "EFT or Easypay"
// @Param        policy_number     formData  string  true   "Target policy number"
// @Param        easypay_number    formData  string  false  "EasyPay reference"
// @Param        notes             formData  []string false "Free-text notes"
// @Param        evidence          formData  file    false  "Proof of payment (repeatable)"
// @Success      201  {object}  response.Response{data=service.AllocationRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/allocation-requests [post]
func (h *AllocationHandler) CreateAllocationRequest(c *gin.Context) {
	var req service.CreateAllocationRequestDTO
	if err := c.ShouldBind(&req); err != nil {
		writeBindError(c, err)
		return
	}

	files, closeAll, err := evidenceFiles(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid evidence upload: "+err.Error()))
		return
	}
	defer closeAll()
	req.Evidence = files

	result, err := h.allocationService.CreateAllocationRequest(c.Request.Context(), middleware.ActorFromGin(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, response.SuccessMessage(http.StatusCreated, "Allocation request created", result))
}

// evidenceFiles opens every uploaded "evidence" part. The returned func closes them.
func evidenceFiles(c *gin.Context) ([]service.EvidenceFile, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, err
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	out := make([]service.EvidenceFile, 0, len(form.File["evidence"]))
	for _, fh := range form.File["evidence"] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		opened = append(opened, f)
		out = append(out, service.EvidenceFile{Filename: fh.Filename, Content: f})
	}
	return out, closeAll, nil
}

// ListAllocationRequests godoc
// @Summary      List allocation requests
// @Description  Paginated listing restricted to the families the caller may view
// @Tags         allocation-requests
// @Security     BearerAuth
// @Produce      json
// @Param        status          query  string  false  "Comma separated statuses"
// @Param        type            query  string  false  "EFT or Easypay"
// @Param        transaction_id  query  string  false  "Upstream transaction id"
// @Param        policy_number   query  string  false  "Policy number"
// @Param        page            query  int     false  "Page number (default 1)"
// @Param        limit           query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/allocation-requests [get]
func (h *AllocationHandler) ListAllocationRequests(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.AllocationFilter{
		Statuses:      splitList(c.QueryArray("status")),
		Type:          c.Query("type"),
		TransactionID: c.Query("transaction_id"),
		PolicyNumber:  c.Query("policy_number"),
		Page:          p.Page,
		Limit:         p.Limit,
	}

	items, total, err := h.allocationService.ListAllocationRequests(c.Request.Context(), middleware.ActorFromGin(c), filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"items":      items,
		"pagination": p.Meta(total),
	}))
}

// GetAllocationRequest godoc
// @Summary      Get allocation request
// @Tags         allocation-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Allocation request ID"
// @Success      200  {object}  response.Response{data=service.AllocationRequestResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/allocation-requests/{id} [get]
func (h *AllocationHandler) GetAllocationRequest(c *gin.Context) {
	result, err := h.allocationService.GetAllocationRequest(c.Request.Context(), middleware.ActorFromGin(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ReviewAllocationRequest godoc
// @Summary      Review allocation request
// @Description  Approves, rejects or cancels a request. Rejection requires a reason.
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                                    true  "Allocation request ID"
// @Param        request  body  service.ReviewAllocationRequestDTO  true  "Review decision"
// @Success      200  {object}  response.Response{data=service.AllocationRequestResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/allocation-requests/{id}/review [put]
func (h *AllocationHandler) ReviewAllocationRequest(c *gin.Context) {
	var req service.ReviewAllocationRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := h.allocationService.ReviewAllocationRequest(c.Request.Context(), middleware.ActorFromGin(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessMessage(http.StatusOK, "Allocation request "+strings.ToLower(result.Status), result))
}

type bulkFunc func(ctx context.Context, actor *authz.Actor, req service.BulkActionDTO) (service.BulkResult, error)

func (h *AllocationHandler) bulk(c *gin.Context, run bulkFunc) {
	var req service.BulkActionDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	result, err := run(c.Request.Context(), middleware.ActorFromGin(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BulkSubmit godoc
// @Summary      Submit approved requests for allocation
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  service.BulkActionDTO  true  "Family and request ids"
// @Success      200  {object}  response.Response{data=service.BulkResult}
// @Router       /api/allocation-requests/submit [post]
func (h *AllocationHandler) BulkSubmit(c *gin.Context) {
	h.bulk(c, h.allocationService.BulkSubmit)
}

// BulkAllocate godoc
// @Summary      Mark submitted requests as allocated
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  service.BulkActionDTO  true  "Family and request ids"
// @Success      200  {object}  response.Response{data=service.BulkResult}
// @Router       /api/allocation-requests/allocate [post]
func (h *AllocationHandler) BulkAllocate(c *gin.Context) {
	h.bulk(c, h.allocationService.BulkAllocate)
}

// BulkMarkDuplicate godoc
// @Summary      Mark submitted requests as duplicates
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  service.BulkActionDTO  true  "Family and request ids"
// @Success      200  {object}  response.Response{data=service.BulkResult}
// @Router       /api/allocation-requests/mark-duplicate [post]
func (h *AllocationHandler) BulkMarkDuplicate(c *gin.Context) {
	h.bulk(c, h.allocationService.BulkMarkDuplicate)
}

type scanRequest struct {
	Type     string           `json:"type" form:"type" binding:"required,txtype"`
	Statuses []string         `json:"statuses" form:"statuses"`
	Receipts []map[string]any `json:"receipts" form:"-"`
}

// bindScan accepts either JSON with receipt rows or a multipart form carrying an XLSX "file".
func bindScan(c *gin.Context) (service.ScanDTO, error) {
	var req scanRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			return service.ScanDTO{}, err
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return service.ScanDTO{}, service.NewValidationError(service.FieldError{Field: "file", Error: "is required"})
		}
		f, err := fh.Open()
		if err != nil {
			return service.ScanDTO{}, err
		}
		defer f.Close()
		receipts, err := scanner.ReadXLSX(f)
		if err != nil {
			return service.ScanDTO{}, service.NewValidationError(service.FieldError{Field: "file", Error: err.Error()})
		}
		return service.ScanDTO{Type: req.Type, Statuses: splitList(req.Statuses), Receipts: receipts}, nil
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		return service.ScanDTO{}, err
	}
	return service.ScanDTO{Type: req.Type, Statuses: splitList(req.Statuses), Receipts: scanner.NormalizeRows(req.Receipts)}, nil
}

func (h *AllocationHandler) writeScanBindError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrValidation) {
		writeError(c, h.log, err)
		return
	}
	writeBindError(c, err)
}

// ScanForDuplicates godoc
// @Summary      Scan allocation requests against payment receipts
// @Description  Classifies requests as failed, duplicate or importable. Accepts JSON rows or an XLSX upload.
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json,mpfd
// @Produce      json
// @Param        type      formData  string  false  "EFT or Easypay (multipart)"
// @Param        file      formData  file    false  "Receipts workbook (multipart)"
// @Success      200  {object}  response.Response{data=scanner.Result}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/allocation-requests/scan [post]
func (h *AllocationHandler) ScanForDuplicates(c *gin.Context) {
	req, err := bindScan(c)
	if err != nil {
		h.writeScanBindError(c, err)
		return
	}

	result, err := h.allocationService.ScanForDuplicates(c.Request.Context(), middleware.ActorFromGin(c), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// StartScanJob godoc
// @Summary      Start a background duplicate scan
// @Tags         allocation-requests
// @Security     BearerAuth
// @Accept       json,mpfd
// @Produce      json
// @Success      202  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/allocation-requests/scan-jobs [post]
func (h *AllocationHandler) StartScanJob(c *gin.Context) {
	req, err := bindScan(c)
	if err != nil {
		h.writeScanBindError(c, err)
		return
	}

	actor := middleware.ActorFromGin(c)
	family, statuses, err := h.allocationService.ValidateScan(actor, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	id, err := h.jobs.StartScan(c.Request.Context(), workflow.ScanInput{
		ActorID:  actor.ID,
		Type:     string(family),
		Statuses: statuses,
		Receipts: req.Receipts,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info("scan job started", zap.String("job_id", id), zap.String("actor_id", actor.ID))
	c.JSON(http.StatusAccepted, response.SuccessMessage(http.StatusAccepted, "Scan started", gin.H{"job_id": id}))
}

// GetScanJob godoc
// @Summary      Get background scan status
// @Tags         allocation-requests
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Scan job ID"
// @Success      200  {object}  response.Response{data=workflow.JobStatus}
// @Failure      404  {object}  response.Response
// @Router       /api/allocation-requests/scan-jobs/{id} [get]
func (h *AllocationHandler) GetScanJob(c *gin.Context) {
	status, err := h.jobs.ScanStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

// splitList flattens repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
