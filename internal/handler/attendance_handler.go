package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/internal/service"
	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
)

// AttendanceHandler wires the daily time-record endpoints.
type AttendanceHandler struct {
	service      *service.AttendanceService
	maxImageSize int64
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, maxImageSize int64) *AttendanceHandler {
	if maxImageSize <= 0 {
		maxImageSize = 5 * 1024 * 1024
	}
	return &AttendanceHandler{service: svc, maxImageSize: maxImageSize}
}

// TimeIn godoc
// @Summary Record time-in
// @Description Open today's time record with a face descriptor and optional snapshot
// @Tags Attendance
// @Accept multipart/form-data
// @Produce json
// @Param descriptor formData string false "JSON array of descriptor values"
// @Param image formData file false "Capture snapshot"
// @Param remarks formData string false "Remarks"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/time-in [post]
func (h *AttendanceHandler) TimeIn(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	descriptor, err := parseDescriptorForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, err := readImageForm(c, h.maxImageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	req := models.TimeInRequest{Descriptor: descriptor, Image: image}
	if remarks := c.PostForm("remarks"); remarks != "" {
		req.Remarks = &remarks
	}

	record, err := h.service.TimeIn(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

// TimeOut godoc
// @Summary Record time-out
// @Description Close today's open record and freeze the rendered hours
// @Tags Attendance
// @Accept multipart/form-data
// @Produce json
// @Param descriptor formData string false "JSON array of descriptor values"
// @Param image formData file false "Capture snapshot"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/time-out [post]
func (h *AttendanceHandler) TimeOut(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	descriptor, err := parseDescriptorForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	image, err := readImageForm(c, h.maxImageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.service.TimeOut(c.Request.Context(), claims.UserID, models.TimeOutRequest{Descriptor: descriptor, Image: image})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// Today godoc
// @Summary Today's attendance state
// @Description Returns the state of the caller's cycle for the current day
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.service.Today(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}

// List godoc
// @Summary List time records
// @Description Lists time records scoped to the caller's role
// @Tags Attendance
// @Produce json
// @Param student_id query string false "Student filter"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance/records [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page, size := parsePagination(c)
	filter := models.TimeRecordFilter{
		StudentID: c.Query("student_id"),
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

	records, total, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, paginationMeta(page, size, total))
}

// MyProgress godoc
// @Summary Caller's hour progress
// @Description Returns completed hours against the required target
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/progress [get]
func (h *AttendanceHandler) MyProgress(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.ProgressForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentProgress godoc
// @Summary Student hour progress
// @Description Returns a student's completed hours against the required target
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *AttendanceHandler) StudentProgress(c *gin.Context) {
	summary, err := h.service.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

func parseDescriptorForm(c *gin.Context) ([]float64, error) {
	raw := c.PostForm("descriptor")
	if raw == "" {
		return nil, nil
	}
	var descriptor []float64
	if err := json.Unmarshal([]byte(raw), &descriptor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "descriptor must be a JSON array of numbers")
	}
	return descriptor, nil
}

func readImageForm(c *gin.Context, maxBytes int64) ([]byte, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	if header.Size > maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image exceeds the upload size limit")
	}
	file, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded image")
	}
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read uploaded image")
	}
	if int64(len(data)) > maxBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "image exceeds the upload size limit")
	}
	return data, nil
}

func parseDateQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
