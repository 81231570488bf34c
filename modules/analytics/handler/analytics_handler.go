package handler

import (
	"net/http"
	"strconv"

	httpPlatform "github.com/andreypavlenko/autoapply/internal/platform/http"
	"github.com/andreypavlenko/autoapply/modules/analytics/service"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	service *service.AnalyticsService
}

func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetOverview godoc
// @Summary Get analytics overview
// @Description Get high-level pipeline statistics
// @Tags analytics
// @Produce json
// @Success 200 {object} model.OverviewAnalytics
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/overview [get]
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	analytics, err := h.service.GetOverview(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get overview analytics")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, analytics)
}

// GetFunnel godoc
// @Summary Get funnel analytics
// @Description Get the extracted → submitted funnel
// @Tags analytics
// @Produce json
// @Success 200 {object} model.FunnelAnalytics
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/funnel [get]
func (h *AnalyticsHandler) GetFunnel(c *gin.Context) {
	analytics, err := h.service.GetFunnel(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get funnel analytics")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, analytics)
}

// GetScoreDistribution godoc
// @Summary Get score distribution
// @Description Get the overall match score histogram
// @Tags analytics
// @Produce json
// @Success 200 {object} model.ScoreDistribution
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/scores [get]
func (h *AnalyticsHandler) GetScoreDistribution(c *gin.Context) {
	analytics, err := h.service.GetScoreDistribution(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get score distribution")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, analytics)
}

// GetDailySubmissions godoc
// @Summary Get daily submissions
// @Description Get per-day submission counts for the last N days
// @Tags analytics
// @Produce json
// @Param days query int false "Number of days (default 30, max 90)"
// @Success 200 {object} model.SubmissionAnalytics
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/submissions [get]
func (h *AnalyticsHandler) GetDailySubmissions(c *gin.Context) {
	days, _ := strconv.Atoi(c.Query("days"))

	analytics, err := h.service.GetDailySubmissions(c.Request.Context(), days)
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get daily submissions")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, analytics)
}

// GetSiteAnalytics godoc
// @Summary Get site analytics
// @Description Get metrics grouped by source site
// @Tags analytics
// @Produce json
// @Success 200 {object} model.SiteAnalytics
// @Failure 500 {object} httpPlatform.ErrorResponse
// @Router /analytics/sites [get]
func (h *AnalyticsHandler) GetSiteAnalytics(c *gin.Context) {
	analytics, err := h.service.GetSiteAnalytics(c.Request.Context())
	if err != nil {
		httpPlatform.RespondWithError(c, http.StatusInternalServerError, "ANALYTICS_ERROR", "Failed to get site analytics")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, analytics)
}

// RegisterRoutes registers analytics routes on a router group
func (h *AnalyticsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	analytics := rg.Group("/analytics")
	{
		analytics.GET("/overview", h.GetOverview)
		analytics.GET("/funnel", h.GetFunnel)
		analytics.GET("/scores", h.GetScoreDistribution)
		analytics.GET("/submissions", h.GetDailySubmissions)
		analytics.GET("/sites", h.GetSiteAnalytics)
	}
}
