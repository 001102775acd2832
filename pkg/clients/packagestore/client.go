package packagestore

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tourello/quotesync/internal/config"
	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/service/pricing"
)

// APIClient is a resty-backed client of the upstream package catalogue.
// The catalogue is read-only from this service's point of view.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a package catalogue client from configuration.
func NewClient(cfg config.PackageAPIConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	if cfg.Token != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.Token))
	}

	return &APIClient{httpClient: restyClient}
}

// apiError represents the catalogue API error payload.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GetPackage fetches one package version snapshot. Version 0 requests the
// latest version. A missing package maps to pricing.ErrPackageNotFound.
func (c *APIClient) GetPackage(ctx context.Context, packageID string, version int) (*models.TravelPackage, error) {
	if packageID == "" {
		return nil, fmt.Errorf("packageID must not be empty")
	}

	result := new(models.TravelPackage)
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if version > 0 {
		req.SetQueryParam("version", strconv.Itoa(version))
	}

	resp, err := req.Get(fmt.Sprintf("/packages/%s", packageID))
	if err != nil {
		return nil, fmt.Errorf("fetch package %s: %w", packageID, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("package %s: %w", packageID, pricing.ErrPackageNotFound)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error.Message
		if message == "" {
			message = resp.Status()
		}
		return nil, fmt.Errorf("package api error: code=%d, message=%s", resp.StatusCode(), message)
	}

	return result, nil
}
