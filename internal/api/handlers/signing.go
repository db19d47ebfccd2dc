package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/signdrop/internal/pdfengine"
	"github.com/signdrop/internal/services"
	"go.uber.org/zap"
)

// SigningHandler serves the signer surface. Possession of the signing
// token is the only authorization; responses are deliberately terse.
type SigningHandler struct {
	workflow *services.Workflow
	logger   *zap.Logger
}

func NewSigningHandler(workflow *services.Workflow, logger *zap.Logger) *SigningHandler {
	return &SigningHandler{
		workflow: workflow,
		logger:   logger.With(zap.String("handler", "signing")),
	}
}

func (h *SigningHandler) Fetch(c *gin.Context) {
	view, err := h.workflow.Fetch(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.respondSignerError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type submitRequest struct {
	SignatureData string `json:"signatureData" binding:"required"`
}

func (h *SigningHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature data is required"})
		return
	}

	img, err := decodeSignatureData(req.SignatureData)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature image"})
		return
	}

	docID, err := h.workflow.Submit(c.Request.Context(), c.Param("token"), img)
	if err != nil {
		h.respondSignerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "documentId": docID})
}

func (h *SigningHandler) respondSignerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, services.ErrAlreadySigned):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Already signed"})
	case errors.Is(err, services.ErrLinkExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Link expired"})
	case errors.Is(err, pdfengine.ErrUnsupportedImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature image"})
	default:
		h.logger.Error("signing failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign document"})
	}
}

// decodeSignatureData accepts the canvas data URL the signer client
// produces ("data:image/png;base64,...") or bare base64.
func decodeSignatureData(data string) ([]byte, error) {
	if idx := strings.Index(data, ";base64,"); idx >= 0 {
		data = data[idx+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(data)
}
