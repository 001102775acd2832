package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriceNumericAndSentinel(t *testing.T) {
	price, err := parsePrice("550.50")
	require.NoError(t, err)
	assert.False(t, price.IsOnRequest())
	assert.Equal(t, "550.5", price.Amount().String())

	price, err = parsePrice("on_request")
	require.NoError(t, err)
	assert.True(t, price.IsOnRequest())

	_, err = parsePrice("call us")
	assert.Error(t, err)
}

func TestCellHandlesShortRowsAndWhitespace(t *testing.T) {
	row := []interface{}{" pkg-alps ", 42}

	assert.Equal(t, "pkg-alps", cell(row, 0))
	assert.Equal(t, "42", cell(row, 1))
	assert.Equal(t, "", cell(row, 5))
}

func TestParseDateLayout(t *testing.T) {
	parsed, err := parseDate("2025-04-02")
	require.NoError(t, err)
	assert.Equal(t, 2025, parsed.Year())

	_, err = parseDate("02/04/2025")
	assert.Error(t, err)
}
