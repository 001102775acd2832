package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourello/quotesync/internal/domain/models"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(value string) *time.Time {
	t := day(value)
	return &t
}

func testPeriods() []models.PricingPeriod {
	return []models.PricingPeriod{
		{Period: "Easter", Type: models.PeriodTypeSpecial, StartDate: dayPtr("2025-04-02"), EndDate: dayPtr("2025-04-06")},
		{Period: "April", Type: models.PeriodTypeMonth},
		{Period: "January", Type: models.PeriodTypeMonth},
	}
}

func TestResolvePeriodSpecialWinsOverMonth(t *testing.T) {
	// 2025-04-03 is inside both the Easter range and April.
	period, ok := ResolvePeriod(day("2025-04-03"), testPeriods())
	require.True(t, ok)
	assert.Equal(t, "Easter", period.Period)
	assert.Equal(t, models.PeriodTypeSpecial, period.Type)
}

func TestResolvePeriodSpecialBoundsAreInclusive(t *testing.T) {
	for _, arrival := range []string{"2025-04-02", "2025-04-06"} {
		period, ok := ResolvePeriod(day(arrival), testPeriods())
		require.True(t, ok, "arrival=%s", arrival)
		assert.Equal(t, "Easter", period.Period)
	}

	period, ok := ResolvePeriod(day("2025-04-07"), testPeriods())
	require.True(t, ok)
	assert.Equal(t, "April", period.Period)
}

func TestResolvePeriodMonthFallbackMatchesByName(t *testing.T) {
	period, ok := ResolvePeriod(day("2025-01-15"), testPeriods())
	require.True(t, ok)
	assert.Equal(t, "January", period.Period)
	assert.Equal(t, models.PeriodTypeMonth, period.Type)
}

func TestResolvePeriodMonthLabelIsCaseInsensitive(t *testing.T) {
	periods := []models.PricingPeriod{{Period: "january", Type: models.PeriodTypeMonth}}

	_, ok := ResolvePeriod(day("2025-01-15"), periods)
	assert.True(t, ok)
}

func TestResolvePeriodNoMatchFails(t *testing.T) {
	_, ok := ResolvePeriod(day("2025-07-10"), testPeriods())
	assert.False(t, ok)
}

func TestResolvePeriodOverlappingSpecialsFirstDeclaredWins(t *testing.T) {
	periods := []models.PricingPeriod{
		{Period: "Peak A", Type: models.PeriodTypeSpecial, StartDate: dayPtr("2025-08-01"), EndDate: dayPtr("2025-08-20")},
		{Period: "Peak B", Type: models.PeriodTypeSpecial, StartDate: dayPtr("2025-08-10"), EndDate: dayPtr("2025-08-31")},
	}

	period, ok := ResolvePeriod(day("2025-08-15"), periods)
	require.True(t, ok)
	assert.Equal(t, "Peak A", period.Period)
}

func TestResolvePeriodUsesArrivalDateOnly(t *testing.T) {
	// A stay departing inside the Easter range still prices by its
	// arrival month.
	period, ok := ResolvePeriod(day("2025-04-01"), testPeriods())
	require.True(t, ok)
	assert.Equal(t, "April", period.Period)
}
