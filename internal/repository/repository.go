package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/models"
)

type Storage interface {
	User() UserRepo
	Property() PropertyRepo
	Favorite() FavoriteRepo

	// Run fn within transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Profile        models.Profile
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return error apperrors.ErrDuplicateEmail
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Replace password hash
	// If user not found must return apperrors.ErrUserNotFound
	UpdatePasswordHash(ctx context.Context, userID uuid.UUID, hashedPassword string) error

	UpdateProfile(ctx context.Context, userID uuid.UUID, profile models.Profile) (models.User, error)
}

// Property repository interface
// Missing property must be reported as apperrors.ErrPropertyNotFound
type PropertyRepo interface {
	CreateProperty(ctx context.Context, p models.Property) (models.Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (models.Property, error)

	// Most recently updated first
	ListProperties(ctx context.Context) ([]models.Property, error)

	// Replace all editable fields, bump updated_on
	UpdateProperty(ctx context.Context, p models.Property) (models.Property, error)
	DeleteProperty(ctx context.Context, id uuid.UUID) error
}

// Favorite repository interface
type FavoriteRepo interface {
	// If the pair exists already has to return apperrors.ErrFavoriteExists
	// If the property does not exist has to return apperrors.ErrPropertyNotFound
	AddFavorite(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) (models.Favorite, error)

	// User favorites with their properties, newest first
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)

	// If the pair does not exist has to return apperrors.ErrFavoriteNotFound
	RemoveFavorite(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) error
}
