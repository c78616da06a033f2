package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPropertyPatch_Apply(t *testing.T) {
	p := Property{
		Bedroom: 1,
		City:    "Lagos",
		Price:   decimal.RequireFromString("100.00"),
		Status:  PropertyStatusAvailable,
	}

	bedroom := 3
	price := decimal.RequireFromString("250.50")
	PropertyPatch{Bedroom: &bedroom, Price: &price}.Apply(&p)

	require.Equal(t, 3, p.Bedroom)
	require.True(t, price.Equal(p.Price))
	require.Equal(t, "Lagos", p.City, "unset fields must stay untouched")
	require.Equal(t, PropertyStatusAvailable, p.Status)
}
