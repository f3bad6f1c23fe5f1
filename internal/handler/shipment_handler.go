package handler

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"shipdocs/internal/csvexport"
	"shipdocs/internal/domain"
	"shipdocs/internal/intake"
	"shipdocs/internal/service"
)

// ShipmentHandler handles shipment processing and record endpoints.
type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// Process handles POST /api/v1/shipments/process. It accepts a multipart
// batch under the "files" field, plus an optional "ground_truth" field
// holding a JSON object of expected field values for accuracy scoring.
func (h *ShipmentHandler) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_MULTIPART", "request must be multipart/form-data")
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "at least one file is required under the files field")
		return
	}

	uploads := make([]intake.Upload, 0, len(files))
	for _, fh := range files {
		up, readErr := readUpload(fh)
		if readErr != nil {
			RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file "+fh.Filename)
			return
		}
		uploads = append(uploads, up)
	}

	req := &service.ProcessRequest{Uploads: uploads}
	if raw := c.PostForm("ground_truth"); raw != "" {
		var truth map[string]interface{}
		if jsonErr := json.Unmarshal([]byte(raw), &truth); jsonErr != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_GROUND_TRUTH", "ground_truth must be a JSON object")
			return
		}
		req.GroundTruth = truth
	}

	out, err := h.shipmentService.ProcessDocuments(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, out)
}

// List handles GET /api/v1/shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	records, err := h.shipmentService.ListRecords(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, records)
}

// GetByID handles GET /api/v1/shipments/:id
func (h *ShipmentHandler) GetByID(c *gin.Context) {
	record, err := h.shipmentService.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// updateRequest is the PUT body: the edited record, plus the original field
// sets when the caller wants the numeric aggregates recomputed instead of
// taken as edited.
type updateRequest struct {
	Record      domain.ShipmentRecord `json:"record"`
	FieldSets   []domain.FieldSet     `json:"field_sets,omitempty"`
	Reaggregate bool                  `json:"reaggregate,omitempty"`
}

// Update handles PUT /api/v1/shipments/:id
func (h *ShipmentHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "body must contain an edited record")
		return
	}

	if req.Reaggregate {
		h.shipmentService.Reaggregate(&req.Record, req.FieldSets)
	}

	stored, err := h.shipmentService.UpdateRecord(c.Request.Context(), c.Param("id"), &req.Record)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, stored)
}

// Delete handles DELETE /api/v1/shipments/:id
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if err := h.shipmentService.DeleteRecord(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": c.Param("id")})
}

// Export handles GET /api/v1/shipments/export, streaming all records as CSV.
func (h *ShipmentHandler) Export(c *gin.Context) {
	records, err := h.shipmentService.ListRecords(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="shipments.csv"`)
	c.Status(http.StatusOK)

	_, _ = c.Writer.Write(csvexport.BOM)
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteRecords(records); err != nil {
		return
	}
	w.Flush()
}

func readUpload(fh *multipart.FileHeader) (intake.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return intake.Upload{}, err
	}
	defer func() { _ = f.Close() }()

	payload, err := io.ReadAll(f)
	if err != nil {
		return intake.Upload{}, err
	}
	return intake.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Payload:     payload,
	}, nil
}
