package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	Compare(ctx context.Context, req dto.CompareTimetablesRequest) (*dto.CompareTimetablesResponse, error)
	GetRun(ctx context.Context, id string) (*models.TimetableRun, error)
	ListRuns(ctx context.Context, query dto.TimetableRunQuery) ([]models.TimetableRun, *models.Pagination, error)
	ExportRun(ctx context.Context, id, format string) (*dto.TimetableExport, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a weekly timetable
// @Description Places every class session into the Monday-Friday grid. Unplaceable input returns 422 with the unscheduled sessions.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Rosters to schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = appErrors.ErrUnschedulable.Status
	}
	response.JSON(c, status, result, nil, runMeta(c, result))
}

// Compare godoc
// @Summary Compare timetable scenarios
// @Description Runs independent scenarios concurrently and reports each outcome in request order.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.CompareTimetablesRequest true "Scenarios"
// @Success 200 {object} response.Envelope
// @Router /timetables/compare [post]
func (h *TimetableHandler) Compare(c *gin.Context) {
	var req dto.CompareTimetablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comparison payload"))
		return
	}
	result, err := h.service.Compare(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListRuns godoc
// @Summary List timetable runs
// @Tags Timetables
// @Produce json
// @Param status query string false "SUCCEEDED or FAILED"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables/runs [get]
func (h *TimetableHandler) ListRuns(c *gin.Context) {
	var query dto.TimetableRunQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	runs, pagination, err := h.service.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, pagination)
}

// GetRun godoc
// @Summary Get a timetable run
// @Tags Timetables
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/runs/{id} [get]
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// ExportRun godoc
// @Summary Export a timetable run
// @Description Renders the per-class day by slot grid of a successful run.
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Run ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 409 {object} response.Envelope
// @Router /timetables/runs/{id}/export [get]
func (h *TimetableHandler) ExportRun(c *gin.Context) {
	file, err := h.service.ExportRun(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", string(models.ExportFormatCSV)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}
