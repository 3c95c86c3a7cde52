package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/response"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	log               *zap.Logger
	now               func() time.Time
}

func NewStatisticsHandler(statisticsService service.StatisticsService, log *zap.Logger) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, log: log, now: time.Now}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/statistics", h.GetStatistics)
}

// @Summary      Get allocation dashboard statistics
// @Description  Requests per family and status, plus the most active requesters, bounded by time
// @Tags         statistics
// @Produce      json
// @Param        start_date query string false "Start Date (RFC3339), defaults to the first of the month"
// @Param        end_date   query string false "End Date (RFC3339), defaults to now"
// @Success      200 {object} response.Response{data=model.StatisticsResponse}
// @Failure      400 {object} response.Response "Invalid date format"
// @Failure      403 {object} response.Response
// @Security     BearerAuth
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	startDateStr := c.Query("start_date")
	endDateStr := c.Query("end_date")

	var startDate, endDate time.Time
	var err error

	// Default to current month if no dates are provided
	now := h.now().UTC()
	if startDateStr == "" {
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		startDate, err = time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid start_date format, expected RFC3339"))
			return
		}
	}

	if endDateStr == "" {
		endDate = now
	} else {
		endDate, err = time.Parse(time.RFC3339, endDateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid end_date format, expected RFC3339"))
			return
		}
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), middleware.ActorFromGin(c), startDate, endDate)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
