package favorite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/repository"
)

type FavoriteService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *FavoriteService {
	return &FavoriteService{storage: storage}
}

func (s *FavoriteService) List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	favorites, err := s.storage.Favorite().ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return favorites, nil
}

// Add property to user favorites
// Fails with apperrors.ErrPropertyNotFound or apperrors.ErrFavoriteExists
func (s *FavoriteService) Add(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) (models.Favorite, error) {
	var fav models.Favorite

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		p, err := tx.Property().GetProperty(ctx, propertyID)
		if err != nil {
			return err
		}

		fav, err = tx.Favorite().AddFavorite(ctx, userID, propertyID)
		if err != nil {
			return err
		}

		fav.Property = p
		return nil
	})
	if err != nil {
		return fav, fmt.Errorf("add favorite: %w", err)
	}

	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID uuid.UUID, propertyID uuid.UUID) error {
	if err := s.storage.Favorite().RemoveFavorite(ctx, userID, propertyID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
