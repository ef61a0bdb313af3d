package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/middleware"
	"github.com/noah-isme/ojt-portal-api/internal/models"
)

func TestFaceHandlerRegisterInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFaceHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/faces/register", strings.NewReader(`{"descriptor": "oops"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.Register(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFaceHandlerCompareUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFaceHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/faces/compare", nil)

	handler.Compare(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
