package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/service/pricing"
	"github.com/tourello/quotesync/internal/service/quotesync"
)

const userIDHeader = "X-User-ID"

// QuoteHandler drives quote editing sessions over HTTP.
type QuoteHandler struct {
	sessions *quotesync.Manager
	pricing  *pricing.Service
	logger   *zap.Logger
}

// NewQuoteHandler constructs the HTTP handler adapter.
func NewQuoteHandler(sessions *quotesync.Manager, pricingSvc *pricing.Service, logger *zap.Logger) *QuoteHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteHandler{sessions: sessions, pricing: pricingSvc, logger: logger}
}

// LinkRequest selects a package for a quote together with the initial
// parameter triple.
type LinkRequest struct {
	PackageID      string `json:"package_id" binding:"required"`
	PackageVersion int    `json:"package_version"`
	NumberOfPeople int    `json:"number_of_people" binding:"required"`
	NumberOfNights int    `json:"number_of_nights" binding:"required"`
	ArrivalDate    string `json:"arrival_date" binding:"required"`
}

// ParametersRequest carries an edit of the live parameter triple.
type ParametersRequest struct {
	NumberOfPeople int    `json:"number_of_people" binding:"required"`
	NumberOfNights int    `json:"number_of_nights" binding:"required"`
	ArrivalDate    string `json:"arrival_date" binding:"required"`
}

// PriceRequest carries a manual price edit; "ON_REQUEST" clears a numeric
// price back to the sentinel.
type PriceRequest struct {
	Price models.Price `json:"price"`
}

// SyncStatusResponse is the single source of truth the UI asserts on.
type SyncStatusResponse struct {
	QuoteID       string                        `json:"quote_id"`
	State         models.SyncState              `json:"state"`
	Price         *models.Price                 `json:"price,omitempty"`
	Parameters    models.QuoteParameters        `json:"parameters"`
	LinkedPackage *models.LinkedPackageSnapshot `json:"linked_package,omitempty"`
	LastFailure   *models.CalculationError      `json:"last_failure,omitempty"`
	History       []models.PriceHistoryEntry    `json:"price_history"`
}

// Link attaches a package to the quote and computes the initial price.
func (h *QuoteHandler) Link(c *gin.Context) {
	quoteID := c.Param("id")

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid link payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params, err := CalculationRequest{
		NumberOfPeople: req.NumberOfPeople,
		NumberOfNights: req.NumberOfNights,
		ArrivalDate:    req.ArrivalDate,
	}.Params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pkg, err := h.pricing.GetPackage(c.Request.Context(), req.PackageID, req.PackageVersion)
	if err != nil {
		writeCalculationError(c, h.logger, err)
		return
	}

	engine := h.sessions.Session(quoteID)
	if err := engine.LinkPackage(userID(c), pkg, params); err != nil {
		writeCalculationError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.status(quoteID, engine))
}

// UpdateParameters records a parameter edit; recomputation is debounced,
// so the response usually reports the calculating state.
func (h *QuoteHandler) UpdateParameters(c *gin.Context) {
	quoteID := c.Param("id")

	var req ParametersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid parameters payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params, err := CalculationRequest{
		NumberOfPeople: req.NumberOfPeople,
		NumberOfNights: req.NumberOfNights,
		ArrivalDate:    req.ArrivalDate,
	}.Params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine := h.sessions.Session(quoteID)
	engine.UpdateParameters(userID(c), params)

	c.JSON(http.StatusAccepted, h.status(quoteID, engine))
}

// SetPrice records a manual price edit.
func (h *QuoteHandler) SetPrice(c *gin.Context) {
	quoteID := c.Param("id")

	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid price payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	engine := h.sessions.Session(quoteID)
	engine.SetPrice(userID(c), req.Price)

	c.JSON(http.StatusOK, h.status(quoteID, engine))
}

// ResetPrice discards a manual override and recomputes immediately.
func (h *QuoteHandler) ResetPrice(c *gin.Context) {
	quoteID := c.Param("id")
	engine := h.sessions.Session(quoteID)

	if err := engine.ResetToCalculated(userID(c)); err != nil {
		if errors.Is(err, quotesync.ErrNoLinkedPackage) {
			c.JSON(http.StatusConflict, gin.H{"error": "quote has no linked package"})
			return
		}
		writeCalculationError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, h.status(quoteID, engine))
}

// Unlink detaches the package, leaving every other quote field untouched.
func (h *QuoteHandler) Unlink(c *gin.Context) {
	quoteID := c.Param("id")
	engine := h.sessions.Session(quoteID)
	engine.Unlink()

	c.JSON(http.StatusOK, h.status(quoteID, engine))
}

// SyncStatus reports the current sync relationship for a quote.
func (h *QuoteHandler) SyncStatus(c *gin.Context) {
	quoteID := c.Param("id")
	engine := h.sessions.Session(quoteID)

	c.JSON(http.StatusOK, h.status(quoteID, engine))
}

func (h *QuoteHandler) status(quoteID string, engine *quotesync.Engine) SyncStatusResponse {
	return SyncStatusResponse{
		QuoteID:       quoteID,
		State:         engine.State(),
		Price:         engine.Price(),
		Parameters:    engine.Parameters(),
		LinkedPackage: engine.Snapshot(),
		LastFailure:   engine.LastFailure(),
		History:       engine.History(),
	}
}

func userID(c *gin.Context) string {
	if id := c.GetHeader(userIDHeader); id != "" {
		return id
	}
	return "anonymous"
}
