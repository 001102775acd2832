package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourello/quotesync/internal/domain/models"
	"github.com/tourello/quotesync/internal/server/handlers"
)

func linkQuote(t *testing.T, r *gin.Engine, quoteID string) handlers.SyncStatusResponse {
	t.Helper()

	rec := doJSON(t, r, http.MethodPost, "/v1/quotes/"+quoteID+"/link", handlers.LinkRequest{
		PackageID:      "pkg-alps",
		NumberOfPeople: 8,
		NumberOfNights: 3,
		ArrivalDate:    "2025-01-15",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status handlers.SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return status
}

func TestLinkQuoteReturnsSyncedStatus(t *testing.T) {
	r := newTestRouter()

	status := linkQuote(t, r, "q-1")

	assert.Equal(t, "q-1", status.QuoteID)
	assert.Equal(t, models.SyncStateSynced, status.State)
	require.NotNil(t, status.Price)
	assert.Equal(t, "4400", status.Price.String())
	require.NotNil(t, status.LinkedPackage)
	assert.Equal(t, "pkg-alps", status.LinkedPackage.PackageID)
	require.Len(t, status.History, 1)
	assert.Equal(t, models.ReasonPackageSelection, status.History[0].Reason)
	assert.Equal(t, "op-1", status.History[0].UserID)
}

func TestManualPriceEditFlipsToCustom(t *testing.T) {
	r := newTestRouter()
	linkQuote(t, r, "q-2")

	rec := doJSON(t, r, http.MethodPut, "/v1/quotes/q-2/price", map[string]any{"price": 4000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var status handlers.SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.SyncStateCustom, status.State)
	require.NotNil(t, status.LinkedPackage)
	assert.True(t, status.LinkedPackage.CustomPriceApplied)
	require.Len(t, status.History, 2)
	assert.Equal(t, models.ReasonManualOverride, status.History[1].Reason)
}

func TestParameterEditReportsCalculating(t *testing.T) {
	r := newTestRouter()
	linkQuote(t, r, "q-3")

	rec := doJSON(t, r, http.MethodPatch, "/v1/quotes/q-3/parameters", handlers.ParametersRequest{
		NumberOfPeople: 9,
		NumberOfNights: 4,
		ArrivalDate:    "2025-01-20",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var status handlers.SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.SyncStateCalculating, status.State)
	// The last good price stays visible while calculating.
	require.NotNil(t, status.Price)
	assert.Equal(t, "4400", status.Price.String())
}

func TestResetPriceWithoutLinkConflicts(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, http.MethodPost, "/v1/quotes/q-4/price/reset", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnlinkKeepsPriceAndHistory(t *testing.T) {
	r := newTestRouter()
	linkQuote(t, r, "q-5")

	rec := doJSON(t, r, http.MethodDelete, "/v1/quotes/q-5/link", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status handlers.SyncStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, models.SyncStateUnlinked, status.State)
	assert.Nil(t, status.LinkedPackage)
	require.NotNil(t, status.Price)
	assert.Equal(t, "4400", status.Price.String())
	require.Len(t, status.History, 1)
}

func TestSyncStatusReflectsDebouncedRecalculation(t *testing.T) {
	r := newTestRouter()
	linkQuote(t, r, "q-6")

	doJSON(t, r, http.MethodPatch, "/v1/quotes/q-6/parameters", handlers.ParametersRequest{
		NumberOfPeople: 6,
		NumberOfNights: 3,
		ArrivalDate:    "2025-01-20",
	})

	require.Eventually(t, func() bool {
		rec := doJSON(t, r, http.MethodGet, "/v1/quotes/q-6/sync", nil)
		var status handlers.SyncStatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.State == models.SyncStateSynced && status.Price != nil && status.Price.String() == "3300"
	}, time.Second, 5*time.Millisecond)
}
