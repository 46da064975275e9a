package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/rumahtahfidz/pesantren-api/pkg/errors"
	"github.com/rumahtahfidz/pesantren-api/pkg/response"
	"github.com/rumahtahfidz/pesantren-api/pkg/storage"
)

// AudioHandler streams stored recordings referenced by signed tokens.
// The token itself authorizes the download, no session required.
type AudioHandler struct {
	signer *storage.SignedURLSigner
	store  *storage.LocalStorage
}

// NewAudioHandler constructs AudioHandler.
func NewAudioHandler(signer *storage.SignedURLSigner, store *storage.LocalStorage) *AudioHandler {
	return &AudioHandler{signer: signer, store: store}
}

// Download godoc
// @Summary Download a recording via signed token
// @Tags Hafalan
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Failure 401 {object} response.Envelope
// @Router /audio/{token} [get]
func (h *AudioHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link"))
		return
	}

	file, err := h.store.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "recording not found"))
		return
	}
	defer file.Close()

	c.Header("Content-Type", "audio/ogg")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
