package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/service/pricing"
)

const arrivalDateLayout = "2006-01-02"

// CalculationHandler serves the stateless price calculation contract.
type CalculationHandler struct {
	svc    *pricing.Service
	logger *zap.Logger
}

// NewCalculationHandler constructs the HTTP handler adapter.
func NewCalculationHandler(svc *pricing.Service, logger *zap.Logger) *CalculationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculationHandler{svc: svc, logger: logger}
}

// CalculationRequest is the calculation API request body. The arrival
// date travels as a YYYY-MM-DD string.
type CalculationRequest struct {
	PackageID      string `json:"package_id" binding:"required"`
	PackageVersion int    `json:"package_version"`
	NumberOfPeople int    `json:"number_of_people" binding:"required"`
	NumberOfNights int    `json:"number_of_nights" binding:"required"`
	ArrivalDate    string `json:"arrival_date" binding:"required"`
}

// Params converts the request body into domain parameters.
func (r CalculationRequest) Params() (models.QuoteParameters, error) {
	arrival, err := time.Parse(arrivalDateLayout, r.ArrivalDate)
	if err != nil {
		return models.QuoteParameters{}, fmt.Errorf("arrival_date must be YYYY-MM-DD: %w", err)
	}
	return models.QuoteParameters{
		NumberOfPeople: r.NumberOfPeople,
		NumberOfNights: r.NumberOfNights,
		ArrivalDate:    arrival,
	}, nil
}

// Calculate resolves a price for a (package, people, nights, arrival)
// request. Coverage gaps come back as typed failure payloads, on-request
// as a successful response with is_on_request set.
func (h *CalculationHandler) Calculate(c *gin.Context) {
	var req CalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid calculation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	params, err := req.Params()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.CalculateForPackage(c.Request.Context(), req.PackageID, req.PackageVersion, params)
	if err != nil {
		writeCalculationError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeCalculationError maps calculation failures onto the wire contract:
// typed failures keep their code, anything else is an upstream problem.
func writeCalculationError(c *gin.Context, logger *zap.Logger, err error) {
	var calcErr *models.CalculationError
	if errors.As(err, &calcErr) {
		c.JSON(statusForFailure(calcErr.Code), calcErr)
		return
	}

	logger.Error("calculation failed", zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "calculation unavailable"})
}

func statusForFailure(code models.FailureCode) int {
	switch code {
	case models.FailurePackageNotFound:
		return http.StatusNotFound
	case models.FailureInvalidParameters:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
