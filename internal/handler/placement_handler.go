package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// PlacementHandler wires the placement workflow endpoints.
type PlacementHandler struct {
	service    *service.PlacementService
	maxDocSize int64
}

// NewPlacementHandler creates a new handler.
func NewPlacementHandler(svc *service.PlacementService, maxDocSize int64) *PlacementHandler {
	if maxDocSize <= 0 {
		maxDocSize = 5 * 1024 * 1024
	}
	return &PlacementHandler{service: svc, maxDocSize: maxDocSize}
}

// Submit godoc
// @Summary Submit placement
// @Description Creates the caller's placement submission in the pending state
// @Tags Placements
// @Accept multipart/form-data
// @Produce json
// @Param company_name formData string true "Company name"
// @Param company_address formData string true "Company address"
// @Param supervisor_name formData string true "Supervisor name"
// @Param supervisor_contact formData string true "Supervisor contact"
// @Param document formData file false "Endorsement document"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements [post]
func (h *PlacementHandler) Submit(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := h.parseSubmitForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stored, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, stored)
}

// Edit godoc
// @Summary Edit placement
// @Description Rewrites the caller's submission and resets it to pending
// @Tags Placements
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements [put]
func (h *PlacementHandler) Edit(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := h.parseSubmitForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	stored, err := h.service.Edit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stored, nil)
}

// Mine godoc
// @Summary Caller's placement
// @Description Returns the caller's submission
// @Tags Placements
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /placements/me [get]
func (h *PlacementHandler) Mine(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	submission, err := h.service.Mine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, submission, nil)
}

// List godoc
// @Summary List placements
// @Description Lists submissions for review, scoped to the reviewer's program
// @Tags Placements
// @Produce json
// @Param status query string false "Status filter"
// @Param search query string false "Search term"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /placements [get]
func (h *PlacementHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := parsePagination(c)
	filter := models.PlacementFilter{
		Search:    c.Query("search"),
		Page:      page,
		PageSize:  size,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.PlacementStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
			return
		}
		filter.Status = &status
	}

	placements, total, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, placements, paginationMeta(page, size, total))
}

// Get godoc
// @Summary Get placement
// @Description Returns one submission with student metadata
// @Tags Placements
// @Produce json
// @Param id path string true "Placement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /placements/{id} [get]
func (h *PlacementHandler) Get(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Review placement
// @Description Approves or rejects a pending submission
// @Tags Placements
// @Accept json
// @Produce json
// @Param id path string true "Placement ID"
// @Param payload body models.PlacementReviewRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /placements/{id}/review [post]
func (h *PlacementHandler) Review(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.PlacementReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	stored, err := h.service.Review(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stored, nil)
}

func (h *PlacementHandler) parseSubmitForm(c *gin.Context) (models.PlacementSubmitRequest, error) {
	req := models.PlacementSubmitRequest{
		CompanyName:       c.PostForm("company_name"),
		CompanyAddress:    c.PostForm("company_address"),
		SupervisorName:    c.PostForm("supervisor_name"),
		SupervisorContact: c.PostForm("supervisor_contact"),
	}

	header, err := c.FormFile("document")
	if err != nil {
		return req, nil
	}
	if header.Size > h.maxDocSize {
		return req, appErrors.Clone(appErrors.ErrValidation, "document exceeds the upload size limit")
	}
	file, err := header.Open()
	if err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded document")
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(file, h.maxDocSize+1))
	if err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded document")
	}
	req.Document = data
	req.DocumentName = header.Filename
	return req, nil
}
