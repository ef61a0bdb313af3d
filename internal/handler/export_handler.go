package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// ExportHandler wires the daily time-record export endpoint.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// DailyTimeRecord godoc
// @Summary Export daily time record
// @Description Downloads a student's DTR as CSV or PDF
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param student_id query string false "Student ID (ignored for students)"
// @Param format query string false "csv or pdf" default(csv)
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/dtr [get]
func (h *ExportHandler) DailyTimeRecord(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	from, _ := parseDateQuery(c, "date_from")
	to, _ := parseDateQuery(c, "date_to")
	format := c.DefaultQuery("format", "csv")

	result, err := h.service.DailyTimeRecord(c.Request.Context(), claims, c.Query("student_id"), format, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
