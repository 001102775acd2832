package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// OnRequestSentinel is the wire representation of a price that requires
// manual quotation.
const OnRequestSentinel = "ON_REQUEST"

// Price is either a numeric amount or the on-request sentinel. The zero
// value is a numeric zero price.
type Price struct {
	amount    decimal.Decimal
	onRequest bool
}

// NewPrice returns a numeric price.
func NewPrice(amount decimal.Decimal) Price {
	return Price{amount: amount}
}

// PriceFromFloat builds a numeric price from a float amount.
func PriceFromFloat(amount float64) Price {
	return Price{amount: decimal.NewFromFloat(amount)}
}

// PriceOnRequest returns the on-request sentinel price.
func PriceOnRequest() Price {
	return Price{onRequest: true}
}

// IsOnRequest reports whether the price requires manual quotation.
func (p Price) IsOnRequest() bool {
	return p.onRequest
}

// Amount returns the numeric amount. It is zero when the price is on request.
func (p Price) Amount() decimal.Decimal {
	return p.amount
}

// Equal compares two prices, treating on-request as equal only to on-request.
func (p Price) Equal(other Price) bool {
	if p.onRequest || other.onRequest {
		return p.onRequest == other.onRequest
	}
	return p.amount.Equal(other.amount)
}

func (p Price) String() string {
	if p.onRequest {
		return OnRequestSentinel
	}
	return p.amount.String()
}

// MarshalJSON encodes the price as a JSON number, or the string
// "ON_REQUEST" for the sentinel.
func (p Price) MarshalJSON() ([]byte, error) {
	if p.onRequest {
		return json.Marshal(OnRequestSentinel)
	}
	// Raw number, not decimal's default quoted form.
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts a JSON number or the string "ON_REQUEST".
func (p *Price) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == OnRequestSentinel {
			*p = PriceOnRequest()
			return nil
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", s, err)
		}
		*p = NewPrice(amount)
		return nil
	}

	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid price %s: %w", string(data), err)
	}
	*p = NewPrice(amount)
	return nil
}

// MarshalBSONValue stores the price as a string so the sentinel and the
// exact decimal representation survive the round trip.
func (p Price) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(p.String())
}

// UnmarshalBSONValue restores a price from its string representation.
func (p *Price) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var s string
	raw := bson.RawValue{Type: t, Value: data}
	if err := raw.Unmarshal(&s); err != nil {
		return fmt.Errorf("decode price value: %w", err)
	}

	if s == OnRequestSentinel {
		*p = PriceOnRequest()
		return nil
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid stored price %q: %w", s, err)
	}
	*p = NewPrice(amount)
	return nil
}
