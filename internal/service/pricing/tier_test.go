package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourello/quotesync/internal/domain/models"
)

func testTiers() []models.GroupSizeTier {
	return []models.GroupSizeTier{
		{Label: "6-11 People", MinPeople: 6, MaxPeople: 11},
		{Label: "12+ People", MinPeople: 12, MaxPeople: 999},
	}
}

func TestResolveTierBoundariesAreInclusive(t *testing.T) {
	tiers := testTiers()

	for _, people := range []int{6, 11} {
		match, ok := ResolveTier(people, tiers)
		require.True(t, ok, "people=%d", people)
		assert.Equal(t, 0, match.Index)
		assert.Equal(t, "6-11 People", match.Tier.Label)
	}

	match, ok := ResolveTier(12, tiers)
	require.True(t, ok)
	assert.Equal(t, 1, match.Index)
}

func TestResolveTierBelowMinimumFails(t *testing.T) {
	_, ok := ResolveTier(5, testTiers())
	assert.False(t, ok)
}

func TestResolveTierAboveMaximumFails(t *testing.T) {
	_, ok := ResolveTier(1000, testTiers())
	assert.False(t, ok)
}

func TestResolveTierFirstDeclaredWinsOnOverlap(t *testing.T) {
	tiers := []models.GroupSizeTier{
		{Label: "small", MinPeople: 2, MaxPeople: 8},
		{Label: "also-small", MinPeople: 4, MaxPeople: 10},
	}

	match, ok := ResolveTier(6, tiers)
	require.True(t, ok)
	assert.Equal(t, 0, match.Index)
}

func TestResolveTierIsDeterministic(t *testing.T) {
	tiers := testTiers()

	first, ok := ResolveTier(8, tiers)
	require.True(t, ok)
	second, ok := ResolveTier(8, tiers)
	require.True(t, ok)

	assert.Equal(t, first, second)
}
