package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/domain/models"
	"github.com/piggerypro/piggery/internal/service/ledger"
	"github.com/piggerypro/piggery/internal/service/reporting"
)

// maxImportBytes bounds uploaded backup payloads.
const maxImportBytes = 8 << 20

// RecordsHandler exposes the record collections, the dashboard and
// export/import over HTTP.
type RecordsHandler struct {
	ledger *ledger.Service
	logger *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(svc *ledger.Service, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{ledger: svc, logger: logger}
}

// GetData returns the full snapshot.
func (h *RecordsHandler) GetData(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Current())
}

// GetDashboard returns the derived financial summary.
func (h *RecordsHandler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, reporting.Summarize(h.ledger.Current()))
}

type registerPigsRequest struct {
	models.Pig
	Quantity int `json:"quantity"`
}

// CreatePigs registers one animal or a batch with auto-suffixed tags.
func (h *RecordsHandler) CreatePigs(c *gin.Context) {
	var req registerPigsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid pig payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.ledger.RegisterPigs(c.Request.Context(), req.Pig, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pigs": batch})
}

// UpdatePig replaces a registration by ID.
func (h *RecordsHandler) UpdatePig(c *gin.Context) {
	var pig models.Pig
	if err := c.ShouldBindJSON(&pig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	pig.ID = c.Param("id")

	if err := h.ledger.UpdatePig(c.Request.Context(), pig); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pig)
}

// DeletePig removes a pig and every sale referencing it.
func (h *RecordsHandler) DeletePig(c *gin.Context) {
	if err := h.ledger.DeletePig(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateFeed records a feed purchase.
func (h *RecordsHandler) CreateFeed(c *gin.Context) {
	var record models.FeedRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if record.Cost < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost must not be negative"})
		return
	}

	created, err := h.ledger.AddFeed(c.Request.Context(), record)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateFeed replaces a feed record by ID.
func (h *RecordsHandler) UpdateFeed(c *gin.Context) {
	var record models.FeedRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record.ID = c.Param("id")

	if err := h.ledger.UpdateFeed(c.Request.Context(), record); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteFeed removes a feed record.
func (h *RecordsHandler) DeleteFeed(c *gin.Context) {
	if err := h.ledger.DeleteFeed(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSale records an individual sale and marks the animal SOLD.
func (h *RecordsHandler) CreateSale(c *gin.Context) {
	var sale models.SaleRecord
	if err := c.ShouldBindJSON(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.ledger.AddSale(c.Request.Context(), sale)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type bulkSaleRequest struct {
	PigIDs        []string `json:"pigIds"`
	TotalRevenue  float64  `json:"totalRevenue"`
	TotalWeightKg float64  `json:"totalWeight"`
	SaleDate      string   `json:"saleDate"`
}

// CreateBulkSale distributes one group transaction into equal per-animal
// sale records.
func (h *RecordsHandler) CreateBulkSale(c *gin.Context) {
	var req bulkSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sales, err := h.ledger.AddBulkSale(c.Request.Context(), req.PigIDs, req.TotalRevenue, req.TotalWeightKg, req.SaleDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sales": sales})
}

// UpdateSale replaces a sale record by ID.
func (h *RecordsHandler) UpdateSale(c *gin.Context) {
	var sale models.SaleRecord
	if err := c.ShouldBindJSON(&sale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sale.ID = c.Param("id")

	if err := h.ledger.UpdateSale(c.Request.Context(), sale); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// DeleteSale removes a sale and reverts the named animal to RAISING.
func (h *RecordsHandler) DeleteSale(c *gin.Context) {
	pigID := c.Query("pigId")
	if pigID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pigId query parameter is required"})
		return
	}
	if err := h.ledger.DeleteSale(c.Request.Context(), c.Param("id"), pigID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateMisc records a miscellaneous expense.
func (h *RecordsHandler) CreateMisc(c *gin.Context) {
	var record models.MiscRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.ledger.AddMisc(c.Request.Context(), record)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateMisc replaces a misc record by ID.
func (h *RecordsHandler) UpdateMisc(c *gin.Context) {
	var record models.MiscRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	record.ID = c.Param("id")

	if err := h.ledger.UpdateMisc(c.Request.Context(), record); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteMisc removes a misc record.
func (h *RecordsHandler) DeleteMisc(c *gin.Context) {
	if err := h.ledger.DeleteMisc(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Export serves the snapshot as a dated pretty-printed JSON download.
func (h *RecordsHandler) Export(c *gin.Context) {
	payload, filename, err := h.ledger.Export()
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", payload)
}

// Import replaces the snapshot with an uploaded backup. Malformed payloads
// fail cleanly and leave the current data untouched. The client confirms the
// destructive replacement before calling.
func (h *RecordsHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "import payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	if err := h.ledger.Import(c.Request.Context(), data); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "data imported successfully"})
}

// respondError maps the error taxonomy to HTTP statuses.
func (h *RecordsHandler) respondError(c *gin.Context, err error) {
	var formatErr *apperr.FormatError
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrAnimalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrAnimalAlreadySold):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Warn("request rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
