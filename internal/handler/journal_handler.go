package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// JournalHandler wires journal entry endpoints.
type JournalHandler struct {
	service *service.JournalService
}

// NewJournalHandler creates a new handler.
func NewJournalHandler(svc *service.JournalService) *JournalHandler {
	return &JournalHandler{service: svc}
}

// List godoc
// @Summary List journal entries
// @Description Students see their own entries, coordinators their program's
// @Tags Journals
// @Produce json
// @Param student_id query string false "Student filter"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /journals [get]
func (h *JournalHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := parsePagination(c)
	filter := models.JournalFilter{
		StudentID: c.Query("student_id"),
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if from, ok := parseDateQuery(c, "date_from"); ok {
		filter.DateFrom = from
	}
	if to, ok := parseDateQuery(c, "date_to"); ok {
		filter.DateTo = to
	}

	entries, total, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, paginationMeta(page, size, total))
}

// Create godoc
// @Summary Create journal entry
// @Tags Journals
// @Accept json
// @Produce json
// @Param payload body models.JournalEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Router /journals [post]
func (h *JournalHandler) Create(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid journal payload"))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// Update godoc
// @Summary Update journal entry
// @Tags Journals
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body models.JournalEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /journals/{id} [put]
func (h *JournalHandler) Update(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.JournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid journal payload"))
		return
	}

	entry, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete journal entry
// @Tags Journals
// @Param id path string true "Entry ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /journals/{id} [delete]
func (h *JournalHandler) Delete(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
