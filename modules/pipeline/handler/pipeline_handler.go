package handler

import (
	"context"
	"net/http"

	httpPlatform "github.com/andreypavlenko/autoapply/internal/platform/http"
	"github.com/andreypavlenko/autoapply/internal/platform/logger"
	matchmodel "github.com/andreypavlenko/autoapply/modules/matcher/model"
	"github.com/andreypavlenko/autoapply/modules/pipeline/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunRequest triggers a pipeline run
type RunRequest struct {
	Keywords []string                  `json:"keywords" binding:"required"`
	Profile  *matchmodel.ResumeProfile `json:"profile" binding:"required"`
	Stage    string                    `json:"stage,omitempty"`
}

type PipelineHandler struct {
	service *service.PipelineService
	log     *logger.Logger
}

func NewPipelineHandler(service *service.PipelineService, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{service: service, log: log}
}

// Run godoc
// @Summary Trigger a pipeline run
// @Description Start a full (or single-stage) pipeline run in the background
// @Tags pipeline
// @Accept json
// @Produce json
// @Param request body RunRequest true "Run parameters"
// @Success 202 {object} httpPlatform.SuccessResponse
// @Failure 400 {object} httpPlatform.ErrorResponse
// @Failure 409 {object} httpPlatform.ErrorResponse
// @Router /pipeline/run [post]
func (h *PipelineHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpPlatform.RespondWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "keywords and profile are required")
		return
	}
	if h.service.Running() {
		httpPlatform.RespondWithError(c, http.StatusConflict, "PIPELINE_BUSY", "A pipeline run is already in flight")
		return
	}

	// The run outlives the request; progress lands in the report endpoint
	go func() {
		ctx := context.Background()
		if req.Stage != "" {
			if _, err := h.service.RunStage(ctx, req.Stage, req.Keywords, req.Profile); err != nil {
				h.log.Error("stage run failed", zap.String("stage", req.Stage), zap.Error(err))
			}
			return
		}
		h.service.RunFullPipeline(ctx, req.Keywords, req.Profile)
	}()

	httpPlatform.RespondWithSuccess(c, http.StatusAccepted, gin.H{"status": "started"})
}

// Status godoc
// @Summary Pipeline status
// @Description Report whether a run is in flight
// @Tags pipeline
// @Produce json
// @Success 200 {object} httpPlatform.SuccessResponse
// @Router /pipeline/status [get]
func (h *PipelineHandler) Status(c *gin.Context) {
	httpPlatform.RespondWithSuccess(c, http.StatusOK, gin.H{"running": h.service.Running()})
}

// Report godoc
// @Summary Last execution report
// @Description Return the most recent execution report
// @Tags pipeline
// @Produce json
// @Success 200 {object} model.ExecutionReport
// @Failure 404 {object} httpPlatform.ErrorResponse
// @Router /pipeline/report [get]
func (h *PipelineHandler) Report(c *gin.Context) {
	report := h.service.LastReport()
	if report == nil {
		httpPlatform.RespondWithError(c, http.StatusNotFound, "NO_REPORT", "No pipeline run has completed yet")
		return
	}
	httpPlatform.RespondWithData(c, http.StatusOK, report)
}

// RegisterRoutes registers pipeline routes on a router group
func (h *PipelineHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pipeline := rg.Group("/pipeline")
	{
		pipeline.POST("/run", h.Run)
		pipeline.GET("/status", h.Status)
		pipeline.GET("/report", h.Report)
	}
}
