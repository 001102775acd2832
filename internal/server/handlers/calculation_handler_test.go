package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/server/handlers"
	"github.com/tourello/quotesync/internal/server/router"
	"github.com/tourello/quotesync/internal/service/pricing"
	"github.com/tourello/quotesync/internal/service/quotesync"
)

type stubSource struct {
	packages map[string]*models.TravelPackage
}

func (s *stubSource) GetPackage(_ context.Context, packageID string, _ int) (*models.TravelPackage, error) {
	pkg, ok := s.packages[packageID]
	if !ok {
		return nil, pricing.ErrPackageNotFound
	}
	return pkg, nil
}

func day(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func fixturePackage() *models.TravelPackage {
	return &models.TravelPackage{
		ID:       "pkg-alps",
		Name:     "Alpine Adventure",
		Version:  3,
		Currency: "EUR",
		Tiers: []models.GroupSizeTier{
			{Label: "6-11 People", MinPeople: 6, MaxPeople: 11},
		},
		Durations: []int{2, 3, 4},
		Periods: []models.PricingPeriod{
			{
				Period:    "Easter",
				Type:      models.PeriodTypeSpecial,
				StartDate: day("2025-04-02"),
				EndDate:   day("2025-04-06"),
				Prices: []models.PricePoint{
					{TierIndex: 0, Nights: 3, Price: models.PriceOnRequest()},
				},
			},
			{
				Period: "January",
				Type:   models.PeriodTypeMonth,
				Prices: []models.PricePoint{
					{TierIndex: 0, Nights: 3, Price: models.PriceFromFloat(550)},
				},
			},
		},
	}
}

func newTestRouter() *gin.Engine {
	source := &stubSource{packages: map[string]*models.TravelPackage{"pkg-alps": fixturePackage()}}
	svc := pricing.NewService(source, nil, nil)
	sessions := quotesync.NewManager(svc.Calculator(), nil, 5*time.Millisecond, nil)

	return router.New(
		handlers.NewCalculationHandler(svc, nil),
		handlers.NewQuoteHandler(sessions, svc, nil),
		nil,
	)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "op-1")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCalculateReturnsTotalPrice(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/v1/calculations", handlers.CalculationRequest{
		PackageID:      "pkg-alps",
		NumberOfPeople: 8,
		NumberOfNights: 3,
		ArrivalDate:    "2025-01-15",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		IsOnRequest    bool            `json:"is_on_request"`
		PricePerPerson string          `json:"price_per_person"`
		TotalPrice     string          `json:"total_price"`
		TierUsed       models.TierUsed `json:"tier_used"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.IsOnRequest)
	assert.Equal(t, "550", resp.PricePerPerson)
	assert.Equal(t, "4400", resp.TotalPrice)
	assert.Equal(t, "6-11 People", resp.TierUsed.Label)
}

func TestCalculateOnRequestResponse(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/v1/calculations", handlers.CalculationRequest{
		PackageID:      "pkg-alps",
		NumberOfPeople: 8,
		NumberOfNights: 3,
		ArrivalDate:    "2025-04-03",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CalculationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsOnRequest)
	assert.Nil(t, resp.TotalPrice)
	assert.Equal(t, "Easter", resp.PeriodUsed.Period)
}

func TestCalculateFailurePayloads(t *testing.T) {
	r := newTestRouter()

	cases := []struct {
		name   string
		req    handlers.CalculationRequest
		status int
		code   models.FailureCode
	}{
		{
			name:   "unknown package",
			req:    handlers.CalculationRequest{PackageID: "nope", NumberOfPeople: 8, NumberOfNights: 3, ArrivalDate: "2025-01-15"},
			status: http.StatusNotFound,
			code:   models.FailurePackageNotFound,
		},
		{
			name:   "duration not offered",
			req:    handlers.CalculationRequest{PackageID: "pkg-alps", NumberOfPeople: 8, NumberOfNights: 5, ArrivalDate: "2025-01-15"},
			status: http.StatusUnprocessableEntity,
			code:   models.FailureInvalidDuration,
		},
		{
			name:   "no tier coverage",
			req:    handlers.CalculationRequest{PackageID: "pkg-alps", NumberOfPeople: 2, NumberOfNights: 3, ArrivalDate: "2025-01-15"},
			status: http.StatusUnprocessableEntity,
			code:   models.FailureNoTier,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/v1/calculations", tc.req)
			require.Equal(t, tc.status, rec.Code)

			var resp models.CalculationError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestCalculateRejectsMalformedDate(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/v1/calculations", handlers.CalculationRequest{
		PackageID:      "pkg-alps",
		NumberOfPeople: 8,
		NumberOfNights: 3,
		ArrivalDate:    "15/01/2025",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
