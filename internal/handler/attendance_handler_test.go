package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/middleware"
	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func newMultipartRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/attendance/time-in", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAttendanceHandlerTimeInUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newMultipartRequest(t, map[string]string{"descriptor": "[0.1]"})

	handler.TimeIn(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttendanceHandlerTimeInBadDescriptor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newMultipartRequest(t, map[string]string{"descriptor": "not-json"})
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.TimeIn(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerListUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/attendance/records", nil)

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
