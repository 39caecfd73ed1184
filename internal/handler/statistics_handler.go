package handler

import (
	"net/http"

	"panjar/internal/middleware"
	"panjar/internal/service"
	"panjar/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	auth              *middleware.Auth
}

func NewStatisticsHandler(statisticsService service.StatisticsService, auth *middleware.Auth) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auth: auth}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	statsGroup := router.Group("/api/statistics")
	{
		statsGroup.GET("", h.auth.RequireAuth(), h.GetStatistics)
	}
}

// GetStatistics returns the panjar dashboard summary
// @Summary      Panjar statistics
// @Description  Request counts and amounts per status plus the top budget items. Defaults to the current month.
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  false  "YYYY-MM-DD"
// @Param        end_date    query     string  false  "YYYY-MM-DD"
// @Param        unit_id     query     string  false  "Unit ID (ignored below kepala-sekolah)"
// @Success      200         {object}  response.Response{data=model.PanjarStatistics}
// @Failure      400         {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	filter := service.StatisticsFilter{
		UnitID:    c.Query("unit_id"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), filter, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
