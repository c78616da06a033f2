package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
)

type payload struct {
	Name     string          `json:"name" validate:"required,max=5"`
	Message  string          `json:"message" validate:"min=10"`
	Kind     string          `json:"kind" validate:"omitempty,oneof='1 Room' Flat"`
	Rooms    int             `json:"rooms" validate:"gte=0"`
	Price    decimal.Decimal `json:"price" validate:"nonnegative"`
	Link     string          `json:"link" validate:"omitempty,url"`
	Internal string          `json:"-" validate:"omitempty,email"`
}

func valid() payload {
	return payload{
		Name:    "Ada",
		Message: "long enough message",
		Kind:    "1 Room",
		Price:   decimal.RequireFromString("10.5"),
		Link:    "https://x.com/a.jpg",
	}
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, Struct(valid()))
	})

	tests := []struct {
		name    string
		mutate  func(p *payload)
		field   string
		message string
	}{
		{
			name:    "required",
			mutate:  func(p *payload) { p.Name = "" },
			field:   "name",
			message: "This field is required",
		},
		{
			name:    "string too long",
			mutate:  func(p *payload) { p.Name = "abcdef" },
			field:   "name",
			message: "Ensure this field has no more than 5 characters",
		},
		{
			name:    "string too short",
			mutate:  func(p *payload) { p.Message = "short" },
			field:   "message",
			message: "Ensure this field has at least 10 characters",
		},
		{
			name:    "not a choice",
			mutate:  func(p *payload) { p.Kind = "Castle" },
			field:   "kind",
			message: "Value is not a valid choice, expected one of: 1 Room Flat",
		},
		{
			name:    "negative int",
			mutate:  func(p *payload) { p.Rooms = -1 },
			field:   "rooms",
			message: "Ensure this value is not negative",
		},
		{
			name:    "negative decimal",
			mutate:  func(p *payload) { p.Price = decimal.RequireFromString("-0.01") },
			field:   "price",
			message: "Ensure this value is not negative",
		},
		{
			name:    "bad url",
			mutate:  func(p *payload) { p.Link = "not a url" },
			field:   "link",
			message: "Enter a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)

			err := Struct(p)

			require.ErrorIs(t, err, apperrors.ErrValidation)
			var vErr *apperrors.ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, map[string]string{tt.field: tt.message}, vErr.Fields)
		})
	}

	t.Run("not a struct", func(t *testing.T) {
		err := Struct("string")

		require.Error(t, err)
		require.NotErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestEmail(t *testing.T) {
	require.True(t, Email("a@x.com"))
	require.False(t, Email(""))
	require.False(t, Email("not-an-email"))
}
