package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ojt-portal-api/internal/middleware"
	"github.com/noah-isme/ojt-portal-api/internal/models"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

func newFileFixture(t *testing.T) (*FileHandler, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	return NewFileHandler(signer, store), store
}

func TestFileHandlerSignRejectsTraversal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newFileFixture(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/sign?path=../etc/passwd", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})

	handler.Sign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFileHandlerDownloadInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newFileFixture(t)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/download?token=garbage", nil)

	handler.Download(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFileHandlerSignDownloadRoundtrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newFileFixture(t)

	_, err := store.Save("attendance/s1/2026-03-02-in.jpg", []byte("snapshot-bytes"))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/files/sign?path=attendance/s1/2026-03-02-in.jpg", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	handler.Sign(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)

	w2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(w2)
	c2.Request = httptest.NewRequest(http.MethodGet, "/files/download?token="+envelope.Data.Token, nil)
	handler.Download(c2)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, "snapshot-bytes", w2.Body.String())
}
