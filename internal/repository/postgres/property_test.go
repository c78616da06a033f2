package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/testutil"
)

func newProperty(city string) models.Property {
	return models.Property{
		Bedroom:      2,
		Bathroom:     1,
		Electricity:  100,
		Description:  "Two bedroom flat close to the market",
		PropertyType: models.PropertyTypeFlat,
		Price:        decimal.RequireFromString("1500000.50"),
		Address:      "12 Allen Avenue",
		City:         city,
		State:        "Lagos",
		Status:       models.PropertyStatusAvailable,
		CoverImage:   "https://img.example.com/cover.jpg",
	}
}

func Test_PropertyRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create and get", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}

			created, err := r.CreateProperty(t.Context(), newProperty("Ikeja"))
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, created.ID)
			assert.False(t, created.CreatedOn.IsZero())

			got, err := r.GetProperty(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, "Ikeja", got.City)
			assert.True(t, decimal.RequireFromString("1500000.50").Equal(got.Price), "price must round trip, got %s", got.Price)
		})
	})

	t.Run("get not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}

			_, err := r.GetProperty(t.Context(), uuid.New())

			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("list most recently updated first", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}
			first, err := r.CreateProperty(t.Context(), newProperty("Ikeja"))
			require.NoError(t, err)
			second, err := r.CreateProperty(t.Context(), newProperty("Yaba"))
			require.NoError(t, err)

			// now() is constant within transaction, so force the order explicitly
			_, err = tx.Exec(t.Context(), `UPDATE properties SET updated_on = updated_on + interval '1 minute' WHERE id = $1`, first.ID)
			require.NoError(t, err)

			list, err := r.ListProperties(t.Context())
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, first.ID, list[0].ID)
			assert.Equal(t, second.ID, list[1].ID)
		})
	})

	t.Run("list empty", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}

			list, err := r.ListProperties(t.Context())

			require.NoError(t, err)
			require.Empty(t, list)
		})
	})

	t.Run("update", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}
			created, err := r.CreateProperty(t.Context(), newProperty("Ikeja"))
			require.NoError(t, err)

			created.City = "Lekki"
			created.Status = models.PropertyStatusUnavailable
			updated, err := r.UpdateProperty(t.Context(), created)

			require.NoError(t, err)
			assert.Equal(t, "Lekki", updated.City)
			assert.Equal(t, models.PropertyStatusUnavailable, updated.Status)
			assert.Equal(t, created.CreatedOn, updated.CreatedOn)
		})
	})

	t.Run("update not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}
			p := newProperty("Ikeja")
			p.ID = uuid.New()

			_, err := r.UpdateProperty(t.Context(), p)

			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := PropertyRepo{DB: tx}
			created, err := r.CreateProperty(t.Context(), newProperty("Ikeja"))
			require.NoError(t, err)

			require.NoError(t, r.DeleteProperty(t.Context(), created.ID))

			err = r.DeleteProperty(t.Context(), created.ID)
			require.ErrorIs(t, err, apperrors.ErrPropertyNotFound)
		})
	})
}
