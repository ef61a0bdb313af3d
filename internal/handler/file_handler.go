package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
	"github.com/noah-isme/ojt-portal-api/pkg/response"
	"github.com/noah-isme/ojt-portal-api/pkg/storage"
)

// FileHandler serves uploaded files through short-lived signed tokens so that
// snapshots and documents never need a public uploads directory.
type FileHandler struct {
	signer *storage.SignedURLSigner
	store  *storage.LocalStorage
}

// NewFileHandler creates a new handler.
func NewFileHandler(signer *storage.SignedURLSigner, store *storage.LocalStorage) *FileHandler {
	return &FileHandler{signer: signer, store: store}
}

// Sign godoc
// @Summary Issue a signed download token
// @Description Returns a short-lived token for a stored file path
// @Tags Files
// @Produce json
// @Param path query string true "Stored file path"
// @Success 200 {object} response.Envelope
// @Router /files/sign [get]
func (h *FileHandler) Sign(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	relPath := c.Query("path")
	if relPath == "" || strings.Contains(relPath, "..") || filepath.IsAbs(relPath) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid file path"))
		return
	}

	token, expiresAt, err := h.signer.Generate(claims.UserID, relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download"))
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a signed file
// @Description Streams the file referenced by a valid signed token
// @Tags Files
// @Produce application/octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /files/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing download token"))
		return
	}

	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token"))
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(relPath))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
