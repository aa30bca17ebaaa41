package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-cards/internal/dto"
	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/service"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
	"github.com/noah-isme/sma-report-cards/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, req dto.ReportCardExportRequest, callerID string) (*dto.ExportJobResponse, error)
	GetStatus(ctx context.Context, schoolID, id, callerID string) (*dto.ExportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

var exportContentTypes = map[models.ExportFormat]string{
	models.ExportFormatCSV: "text/csv",
	models.ExportFormatPDF: "application/pdf",
}

// ExportHandler exposes asynchronous report card exports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler builds a new handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Create godoc
// @Summary Queue a CSV or PDF export of a class's report cards
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.ReportCardExportRequest true "Export request"
// @Success 202 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /report-cards/exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.ReportCardExportRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.service.CreateJob(c.Request.Context(), req, caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// Status godoc
// @Summary Export job progress
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	schoolID := c.Query("schoolId")
	if !requireSchool(c, schoolID) {
		return
	}
	status, err := h.service.GetStatus(c.Request.Context(), schoolID, c.Param("id"), caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// Download godoc
// @Summary Download a finished export through its signed link
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	contentType, ok := exportContentTypes[download.Format]
	if !ok {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, nil)
}
