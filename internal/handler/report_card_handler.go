package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-report-cards/internal/dto"
	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/pkg/response"
)

type reportCardService interface {
	GenerateForStudent(ctx context.Context, req dto.GenerateReportCardRequest, callerID string) (*models.ReportCard, error)
	GenerateForClass(ctx context.Context, req dto.GenerateClassReportCardsRequest, callerID string) (*dto.BatchGenerateResult, error)
	Publish(ctx context.Context, schoolID, reportID, callerID, role string) (*models.ReportCard, error)
	Unpublish(ctx context.Context, schoolID, reportID, callerID, reason string) (*models.ReportCard, error)
	Delete(ctx context.Context, schoolID, reportID, callerID string) error
	BulkDelete(ctx context.Context, schoolID string, reportIDs []string, callerID string) (int, error)
	List(ctx context.Context, schoolID, classID, termID, callerID string) ([]models.ReportCard, error)
	Get(ctx context.Context, schoolID, reportID, callerID string) (*models.ReportCard, error)
	Versions(ctx context.Context, schoolID, reportID, callerID string) ([]models.ReportCardVersion, error)
}

// ReportCardHandler exposes report card generation and lifecycle endpoints.
type ReportCardHandler struct {
	service reportCardService
}

// NewReportCardHandler builds a new handler.
func NewReportCardHandler(service reportCardService) *ReportCardHandler {
	return &ReportCardHandler{service: service}
}

// Generate godoc
// @Summary Generate or regenerate one student's report card
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body dto.GenerateReportCardRequest true "Generation request"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /report-cards/generate [post]
func (h *ReportCardHandler) Generate(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.GenerateReportCardRequest
	if !bindJSON(c, &req) {
		return
	}
	card, err := h.service.GenerateForStudent(c.Request.Context(), req, caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, card)
}

// GenerateClass godoc
// @Summary Generate report cards for every active student of a class
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body dto.GenerateClassReportCardsRequest true "Batch request"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /report-cards/generate/class [post]
func (h *ReportCardHandler) GenerateClass(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.GenerateClassReportCardsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.GenerateForClass(c.Request.Context(), req, caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// List godoc
// @Summary List report cards of a school
// @Tags ReportCards
// @Produce json
// @Param schoolId query string true "School ID"
// @Param classId query string false "Class ID"
// @Param termId query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards [get]
func (h *ReportCardHandler) List(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	query := dto.ListReportCardsQuery{
		SchoolID: c.Query("schoolId"),
		ClassID:  c.Query("classId"),
		TermID:   c.Query("termId"),
	}
	if !requireSchool(c, query.SchoolID) {
		return
	}
	cards, err := h.service.List(c.Request.Context(), query.SchoolID, query.ClassID, query.TermID, caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cards, map[string]interface{}{"count": len(cards)})
}

// Get godoc
// @Summary Get a report card
// @Tags ReportCards
// @Produce json
// @Param id path string true "Report card ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/{id} [get]
func (h *ReportCardHandler) Get(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	schoolID := c.Query("schoolId")
	if !requireSchool(c, schoolID) {
		return
	}
	card, err := h.service.Get(c.Request.Context(), schoolID, c.Param("id"), caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card)
}

// Versions godoc
// @Summary List stored snapshots of a report card
// @Tags ReportCards
// @Produce json
// @Param id path string true "Report card ID"
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /report-cards/{id}/versions [get]
func (h *ReportCardHandler) Versions(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	schoolID := c.Query("schoolId")
	if !requireSchool(c, schoolID) {
		return
	}
	versions, err := h.service.Versions(c.Request.Context(), schoolID, c.Param("id"), caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions)
}

// Publish godoc
// @Summary Publish a draft report card
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param id path string true "Report card ID"
// @Param payload body dto.PublishReportCardRequest true "School scope"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /report-cards/{id}/publish [post]
func (h *ReportCardHandler) Publish(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.PublishReportCardRequest
	if !bindJSON(c, &req) || !requireSchool(c, req.SchoolID) {
		return
	}
	card, err := h.service.Publish(c.Request.Context(), req.SchoolID, c.Param("id"), caller.UserID, string(caller.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card)
}

// Unpublish godoc
// @Summary Return a published report card to draft
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param id path string true "Report card ID"
// @Param payload body dto.UnpublishReportCardRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /report-cards/{id}/unpublish [post]
func (h *ReportCardHandler) Unpublish(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.UnpublishReportCardRequest
	if !bindJSON(c, &req) || !requireSchool(c, req.SchoolID) {
		return
	}
	card, err := h.service.Unpublish(c.Request.Context(), req.SchoolID, c.Param("id"), caller.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, card)
}

// Delete godoc
// @Summary Delete a report card
// @Tags ReportCards
// @Param id path string true "Report card ID"
// @Param schoolId query string true "School ID"
// @Success 204
// @Router /report-cards/{id} [delete]
func (h *ReportCardHandler) Delete(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.DeleteReportCardRequest
	_ = c.ShouldBindQuery(&req)
	if !requireSchool(c, req.SchoolID) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), req.SchoolID, c.Param("id"), caller.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BulkDelete godoc
// @Summary Delete several report cards of one school
// @Tags ReportCards
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteReportCardsRequest true "Report card IDs"
// @Success 200 {object} response.Envelope
// @Router /report-cards/bulk-delete [post]
func (h *ReportCardHandler) BulkDelete(c *gin.Context) {
	caller := callerFromContext(c)
	if caller == nil {
		return
	}
	var req dto.BulkDeleteReportCardsRequest
	if !bindJSON(c, &req) || !requireSchool(c, req.SchoolID) {
		return
	}
	deleted, err := h.service.BulkDelete(c.Request.Context(), req.SchoolID, req.ReportIDs, caller.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.BulkDeleteResult{Deleted: deleted})
}
