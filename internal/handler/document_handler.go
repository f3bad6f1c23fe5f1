package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shipdocs/internal/service"
)

// DocumentHandler serves stored raw documents back for preview.
type DocumentHandler struct {
	shipmentService service.ShipmentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(shipmentService service.ShipmentService) *DocumentHandler {
	return &DocumentHandler{shipmentService: shipmentService}
}

// Get handles GET /api/v1/documents/*key. The key is the storage key the
// processing response reported for the document.
func (h *DocumentHandler) Get(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_KEY", "document key is required")
		return
	}

	data, err := h.shipmentService.GetRawDocument(c.Request.Context(), key)
	if err != nil {
		HandleError(c, err)
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(key, ".pdf"):
		contentType = "application/pdf"
	case strings.HasSuffix(key, ".xlsx"):
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	c.Data(http.StatusOK, contentType, data)
}
