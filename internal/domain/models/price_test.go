package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceJSONRoundTrip(t *testing.T) {
	numeric := NewPrice(decimal.NewFromFloat(550.50))
	data, err := json.Marshal(numeric)
	require.NoError(t, err)
	assert.Equal(t, "550.5", string(data))

	var decoded Price
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(numeric))
}

func TestPriceJSONOnRequestSentinel(t *testing.T) {
	data, err := json.Marshal(PriceOnRequest())
	require.NoError(t, err)
	assert.Equal(t, `"ON_REQUEST"`, string(data))

	var decoded Price
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.IsOnRequest())
}

func TestPriceJSONRejectsGarbage(t *testing.T) {
	var decoded Price
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &decoded))
}

func TestPriceEqual(t *testing.T) {
	assert.True(t, PriceFromFloat(100).Equal(NewPrice(decimal.NewFromInt(100))))
	assert.False(t, PriceFromFloat(100).Equal(PriceFromFloat(101)))
	assert.True(t, PriceOnRequest().Equal(PriceOnRequest()))
	assert.False(t, PriceOnRequest().Equal(PriceFromFloat(0)))
	assert.False(t, PriceFromFloat(0).Equal(PriceOnRequest()))
}

func TestPriceBSONRoundTrip(t *testing.T) {
	for _, price := range []Price{PriceFromFloat(4400), PriceOnRequest()} {
		typ, data, err := price.MarshalBSONValue()
		require.NoError(t, err)

		var decoded Price
		require.NoError(t, decoded.UnmarshalBSONValue(typ, data))
		assert.True(t, decoded.Equal(price), "price=%s", price)
	}
}
