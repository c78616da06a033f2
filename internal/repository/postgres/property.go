package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/models"
)

type PropertyRepo struct {
	DB DBTX
}

const propertyColumns = `id, bedroom, bathroom, electricity, description, property_type, price,
	address, city, state, status, cover_image, bedroom_image, bathroom_image, parlor_image, video_url,
	created_on, updated_on`

const createProperty = `-- name: CreateProperty
INSERT INTO properties (id, bedroom, bathroom, electricity, description, property_type, price,
	address, city, state, status, cover_image, bedroom_image, bathroom_image, parlor_image, video_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING ` + propertyColumns

func (r *PropertyRepo) CreateProperty(ctx context.Context, p models.Property) (models.Property, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, createProperty,
		p.ID, p.Bedroom, p.Bathroom, p.Electricity, p.Description, p.PropertyType, p.Price,
		p.Address, p.City, p.State, p.Status, p.CoverImage, p.BedroomImage, p.BathroomImage, p.ParlorImage, p.VideoURL,
	)
	created, err := pgx.CollectOneRow(rows, rowToProperty)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getProperty = `-- name: GetProperty
SELECT ` + propertyColumns + ` FROM properties
WHERE id = $1
`

func (r *PropertyRepo) GetProperty(ctx context.Context, id uuid.UUID) (models.Property, error) {
	rows, _ := r.DB.Query(ctx, getProperty, id)
	return collectProperty(rows)
}

const listProperties = `-- name: ListProperties
SELECT ` + propertyColumns + ` FROM properties
ORDER BY updated_on DESC, id
`

func (r *PropertyRepo) ListProperties(ctx context.Context) ([]models.Property, error) {
	rows, _ := r.DB.Query(ctx, listProperties)
	properties, err := pgx.CollectRows(rows, rowToProperty)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return properties, nil
}

const updateProperty = `-- name: UpdateProperty
UPDATE properties SET
	bedroom = $2, bathroom = $3, electricity = $4, description = $5, property_type = $6, price = $7,
	address = $8, city = $9, state = $10, status = $11, cover_image = $12, bedroom_image = $13,
	bathroom_image = $14, parlor_image = $15, video_url = $16, updated_on = now()
WHERE id = $1
RETURNING ` + propertyColumns

func (r *PropertyRepo) UpdateProperty(ctx context.Context, p models.Property) (models.Property, error) {
	rows, _ := r.DB.Query(ctx, updateProperty,
		p.ID, p.Bedroom, p.Bathroom, p.Electricity, p.Description, p.PropertyType, p.Price,
		p.Address, p.City, p.State, p.Status, p.CoverImage, p.BedroomImage, p.BathroomImage, p.ParlorImage, p.VideoURL,
	)
	return collectProperty(rows)
}

const deleteProperty = `-- name: DeleteProperty
DELETE FROM properties WHERE id = $1
`

func (r *PropertyRepo) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteProperty, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrPropertyNotFound
	default:
		return nil
	}
}

func collectProperty(rows pgx.Rows) (models.Property, error) {
	p, err := pgx.CollectOneRow(rows, rowToProperty)

	switch {
	case err == nil:
		return p, nil
	case errors.Is(err, pgx.ErrNoRows):
		return p, apperrors.ErrPropertyNotFound
	default:
		return p, fmt.Errorf("db error: %w", err)
	}
}

func rowToProperty(row pgx.CollectableRow) (models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID, &p.Bedroom, &p.Bathroom, &p.Electricity, &p.Description, &p.PropertyType, &p.Price,
		&p.Address, &p.City, &p.State, &p.Status, &p.CoverImage, &p.BedroomImage, &p.BathroomImage, &p.ParlorImage, &p.VideoURL,
		&p.CreatedOn, &p.UpdatedOn,
	)
	return p, err
}
