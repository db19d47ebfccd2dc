package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/signdrop/internal/geometry"
	"github.com/signdrop/internal/pdfengine"
	"github.com/signdrop/internal/services"
	"go.uber.org/zap"
)

// DocumentHandler serves the operator surface: upload + placement,
// listing, details, download of the signed artifact, and delete.
type DocumentHandler struct {
	workflow       *services.Workflow
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewDocumentHandler(workflow *services.Workflow, maxUploadBytes int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		workflow:       workflow,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(zap.String("handler", "document")),
	}
}

// Upload accepts a multipart form: the PDF plus the signature box in
// display space (x, y, width, height with y already flipped to a
// bottom-left origin), the page index and the rendered canvas height.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please choose a PDF to upload"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer f.Close()
	pdfBytes, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.logger.Error("read uploaded file failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	if int64(len(pdfBytes)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	box, canvasHeight, pageIndex, err := parsePlacementForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.workflow.Place(c.Request.Context(), services.PlaceRequest{
		FileName:     fileHeader.Filename,
		PDF:          pdfBytes,
		PageIndex:    pageIndex,
		Box:          box,
		CanvasHeight: canvasHeight,
	})
	if err != nil {
		h.respondOperatorError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documentId":  result.DocumentID,
		"signingLink": services.SigningURL(requestScheme(c), c.Request.Host, result.SigningToken),
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.workflow.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list documents failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving documents"})
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *DocumentHandler) Details(c *gin.Context) {
	doc, err := h.workflow.Details(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondOperatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           doc.ID,
		"originalName": doc.OriginalName,
		"status":       doc.Status,
		"placement":    doc.Placement,
		"createdAt":    doc.CreatedAt,
		"expiresAt":    doc.ExpiresAt,
		"signedAt":     doc.SignedAt,
	})
}

func (h *DocumentHandler) Download(c *gin.Context) {
	name, data, err := h.workflow.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrNotSigned) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Signed document not found"})
			return
		}
		h.respondOperatorError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.workflow.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondOperatorError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// respondOperatorError reports the underlying cause: the operator
// surface is authenticated and used for debugging, unlike the terse
// signer responses.
func (h *DocumentHandler) respondOperatorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	case errors.Is(err, services.ErrInvalidPage),
		errors.Is(err, geometry.ErrInvalidGeometry),
		errors.Is(err, pdfengine.ErrMalformedDocument),
		errors.Is(err, pdfengine.ErrUnsupportedImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("workflow failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parsePlacementForm(c *gin.Context) (geometry.Box, float64, int, error) {
	var box geometry.Box
	var parseErr error
	floatField := func(name string) float64 {
		v, err := strconv.ParseFloat(c.PostForm(name), 64)
		if err != nil && parseErr == nil {
			parseErr = errors.New("invalid or missing field: " + name)
		}
		return v
	}
	box.X = floatField("x")
	box.Y = floatField("y")
	box.Width = floatField("width")
	box.Height = floatField("height")
	canvasHeight := floatField("canvasHeight")
	page, err := strconv.Atoi(c.PostForm("page"))
	if err != nil && parseErr == nil {
		parseErr = errors.New("invalid or missing field: page")
	}
	if parseErr != nil {
		return geometry.Box{}, 0, 0, parseErr
	}
	return box, canvasHeight, page, nil
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
