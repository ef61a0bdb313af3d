package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// FaceHandler wires face descriptor endpoints.
type FaceHandler struct {
	service *service.FaceService
}

// NewFaceHandler creates a new handler.
func NewFaceHandler(svc *service.FaceService) *FaceHandler {
	return &FaceHandler{service: svc}
}

// Register godoc
// @Summary Register face descriptor
// @Description Stores (or replaces) the caller's face embedding
// @Tags Faces
// @Accept json
// @Produce json
// @Param payload body models.FaceRegisterRequest true "Descriptor payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /faces/register [post]
func (h *FaceHandler) Register(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.FaceRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid face payload"))
		return
	}

	stored, err := h.service.Register(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, stored)
}

// Compare godoc
// @Summary Compare face descriptor
// @Description Compares a probe descriptor against the caller's stored one
// @Tags Faces
// @Accept json
// @Produce json
// @Param payload body models.FaceCompareRequest true "Descriptor payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /faces/compare [post]
func (h *FaceHandler) Compare(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.FaceCompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid face payload"))
		return
	}

	result, err := h.service.Compare(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// StudentStatus godoc
// @Summary Face registration status
// @Description Reports whether a student has a stored descriptor
// @Tags Faces
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/face [get]
func (h *FaceHandler) StudentStatus(c *gin.Context) {
	registered, err := h.service.Registered(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"registered": registered}, nil)
}
