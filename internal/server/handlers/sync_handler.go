package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/piggerypro/piggery/internal/domain/apperr"
	"github.com/piggerypro/piggery/internal/service/ledger"
	syncsvc "github.com/piggerypro/piggery/internal/service/sync"
)

// SyncHandler exposes the cloud backup session over HTTP.
type SyncHandler struct {
	sync   *syncsvc.Service
	ledger *ledger.Service
	logger *zap.Logger
}

// NewSyncHandler constructs the HTTP handler adapter.
func NewSyncHandler(svc *syncsvc.Service, led *ledger.Service, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{sync: svc, ledger: led, logger: logger}
}

type credentialRequest struct {
	ClientID string `json:"clientId"`
}

// PutCredential stores the free-text cloud client ID.
func (h *SyncHandler) PutCredential(c *gin.Context) {
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sync.SetCredential(c.Request.Context(), req.ClientID); err != nil {
		h.logger.Error("failed saving credential", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store credential"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "credential saved"})
}

// GetAuthURL returns the consent URL the user must visit.
func (h *SyncHandler) GetAuthURL(c *gin.Context) {
	url, err := h.sync.AuthCodeURL(c.Request.Context(), c.Query("state"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type authenticateRequest struct {
	Code string `json:"code"`
}

// Authenticate exchanges the consent code for a session token. An empty code
// reports a denied or cancelled consent.
func (h *SyncHandler) Authenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.sync.Authenticate(c.Request.Context(), req.Code); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.sync.Status(c.Request.Context()))
}

// Save uploads the current snapshot to the cloud.
func (h *SyncHandler) Save(c *gin.Context) {
	if err := h.sync.Save(c.Request.Context(), h.ledger.Current()); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "data synced to cloud"})
}

// Load restores the cloud backup, replacing local data wholesale. The client
// confirms the destructive replacement with the user before calling; an
// absent backup is a legitimate empty state, not an error.
func (h *SyncHandler) Load(c *gin.Context) {
	snapshot, found, err := h.sync.Load(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false, "message": "no cloud backup found"})
		return
	}

	h.ledger.Replace(c.Request.Context(), snapshot)
	c.JSON(http.StatusOK, gin.H{"found": true, "message": "data restored from cloud"})
}

// GetStatus reports the session state.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.Status(c.Request.Context()))
}

// GetEvents returns the rolling diagnostic trail.
func (h *SyncHandler) GetEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.sync.Events()})
}

// respondError maps sync errors to HTTP statuses. Every failure surfaces as a
// single human-readable message; retries are always a fresh user action.
func (h *SyncHandler) respondError(c *gin.Context, err error) {
	var configErr *apperr.ConfigError
	var authErr *apperr.AuthError
	var netErr *apperr.NetworkError
	var formatErr *apperr.FormatError
	switch {
	case errors.Is(err, apperr.ErrSyncBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &configErr):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &netErr):
		h.logger.Error("cloud sync failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("sync request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync operation failed"})
	}
}
