package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/models"
)

type FavoriteRepo struct {
	DB DBTX
}

const addFavorite = `-- name: AddFavorite
INSERT INTO favorites (id, user_id, property_id)
VALUES ($1, $2, $3)
RETURNING id, user_id, property_id, created_at
`

func (r *FavoriteRepo) AddFavorite(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) (models.Favorite, error) {
	rows, _ := r.DB.Query(ctx, addFavorite, uuid.New(), userID, propertyID)
	fav, err := pgx.CollectOneRow(rows, rowToFavorite)
	if err == nil {
		return fav, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return fav, apperrors.ErrFavoriteExists
		case pgErr.Code == pgerrcode.ForeignKeyViolation && pgErr.ConstraintName == "favorites_property_id_fkey":
			return fav, apperrors.ErrPropertyNotFound
		case pgErr.Code == pgerrcode.ForeignKeyViolation:
			return fav, apperrors.ErrUserNotFound
		}
	}

	return fav, fmt.Errorf("db error: %w", err)
}

const listFavorites = `-- name: ListFavorites
SELECT f.id, f.user_id, f.property_id, f.created_at, ` + favoritePropertyColumns + `
FROM favorites f
JOIN properties p ON p.id = f.property_id
WHERE f.user_id = $1
ORDER BY f.created_at DESC, f.id
`

const favoritePropertyColumns = `p.id, p.bedroom, p.bathroom, p.electricity, p.description, p.property_type, p.price,
	p.address, p.city, p.state, p.status, p.cover_image, p.bedroom_image, p.bathroom_image, p.parlor_image, p.video_url,
	p.created_on, p.updated_on`

func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	rows, _ := r.DB.Query(ctx, listFavorites, userID)
	favorites, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Favorite, error) {
		var f models.Favorite
		p := &f.Property
		err := row.Scan(
			&f.ID, &f.UserID, &f.PropertyID, &f.CreatedAt,
			&p.ID, &p.Bedroom, &p.Bathroom, &p.Electricity, &p.Description, &p.PropertyType, &p.Price,
			&p.Address, &p.City, &p.State, &p.Status, &p.CoverImage, &p.BedroomImage, &p.BathroomImage, &p.ParlorImage, &p.VideoURL,
			&p.CreatedOn, &p.UpdatedOn,
		)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return favorites, nil
}

const removeFavorite = `-- name: RemoveFavorite
DELETE FROM favorites WHERE user_id = $1 AND property_id = $2
`

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, removeFavorite, userID, propertyID)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrFavoriteNotFound
	default:
		return nil
	}
}

func rowToFavorite(row pgx.CollectableRow) (models.Favorite, error) {
	var f models.Favorite
	err := row.Scan(&f.ID, &f.UserID, &f.PropertyID, &f.CreatedAt)
	return f, err
}
