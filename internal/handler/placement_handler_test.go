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

func TestPlacementHandlerReviewInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlacementHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/placements/p1/review", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "c1", Role: models.RoleCoordinator})

	handler.Review(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlacementHandlerListInvalidStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlacementHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/placements?status=WAITING", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "c1", Role: models.RoleCoordinator})

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlacementHandlerSubmitUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPlacementHandler(nil, 0)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/placements", nil)

	handler.Submit(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
