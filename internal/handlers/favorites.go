package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/handlers/render"
	"github.com/nkiryanov/elbishomes/internal/handlers/userctx"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
)

type favoriteResponse struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Property  propertyResponse `json:"property"`
}

func toFavoriteResponse(f models.Favorite) favoriteResponse {
	return favoriteResponse{
		ID:        f.ID,
		CreatedAt: f.CreatedAt,
		Property:  toPropertyResponse(f.Property),
	}
}

func handleListFavorites(fs favoriteService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		favorites, err := fs.List(r.Context(), u.ID)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		res := make([]favoriteResponse, 0, len(favorites))
		for _, f := range favorites {
			res = append(res, toFavoriteResponse(f))
		}

		render.JSON(w, http.StatusOK, "Favorites listed successfully", res)
	})
}

func handleAddFavorite(fs favoriteService, logger logger.Logger) http.Handler {
	type request struct {
		PropertyID uuid.UUID `json:"property_id" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		f, err := fs.Add(r.Context(), u.ID, data.PropertyID)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusCreated, "Property added to favorites", toFavoriteResponse(f))
	})
}

func handleRemoveFavorite(fs favoriteService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		propertyID, err := pathID(r, "property_id", apperrors.ErrFavoriteNotFound)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		if err := fs.Remove(r.Context(), u.ID, propertyID); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Property removed from favorites", nil)
	})
}
