package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/handlers/render"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/service/property"
)

type propertyResponse struct {
	ID            uuid.UUID       `json:"id"`
	Bedroom       int             `json:"bedroom"`
	Bathroom      int             `json:"bathroom"`
	Electricity   int             `json:"electricity"`
	Description   string          `json:"description"`
	PropertyType  string          `json:"property_type"`
	Price         decimal.Decimal `json:"price"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Status        string          `json:"status"`
	CoverImage    string          `json:"cover_image"`
	BedroomImage  string          `json:"bedroom_image,omitempty"`
	BathroomImage string          `json:"bathroom_image,omitempty"`
	ParlorImage   string          `json:"parlor_image,omitempty"`
	VideoURL      string          `json:"video_url,omitempty"`
	CreatedOn     time.Time       `json:"created_on"`
	UpdatedOn     time.Time       `json:"updated_on"`
}

func toPropertyResponse(p models.Property) propertyResponse {
	return propertyResponse{
		ID:            p.ID,
		Bedroom:       p.Bedroom,
		Bathroom:      p.Bathroom,
		Electricity:   p.Electricity,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		Price:         p.Price,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		Status:        p.Status,
		CoverImage:    p.CoverImage,
		BedroomImage:  p.BedroomImage,
		BathroomImage: p.BathroomImage,
		ParlorImage:   p.ParlorImage,
		VideoURL:      p.VideoURL,
		CreatedOn:     p.CreatedOn,
		UpdatedOn:     p.UpdatedOn,
	}
}

// Parse uuid path value, unparsable id is reported as notFound
func pathID(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

func handleListProperties(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		properties, err := ps.List(r.Context())
		if err != nil {
			if errors.Is(err, apperrors.ErrPropertyNotFound) {
				render.Fail(w, http.StatusNotFound, "No records found")
				return
			}
			render.Error(w, err, logger)
			return
		}

		res := make([]propertyResponse, 0, len(properties))
		for _, p := range properties {
			res = append(res, toPropertyResponse(p))
		}

		render.JSON(w, http.StatusOK, "Properties listed successfully", res)
	})
}

func handleGetProperty(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", apperrors.ErrPropertyNotFound)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		p, err := ps.Get(r.Context(), id)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Property retrieved successfully", toPropertyResponse(p))
	})
}

func handleCreateProperty(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, err := render.BindAndValidate[property.Input](w, r)
		if err != nil {
			return
		}

		p, err := ps.Create(r.Context(), in)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		w.Header().Set("Location", apiPrefix+"/properties/"+p.ID.String())
		render.JSON(w, http.StatusCreated, "Property added successfully", toPropertyResponse(p))
	})
}

func handleUpdateProperty(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", apperrors.ErrPropertyNotFound)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		in, err := render.BindAndValidate[property.Input](w, r)
		if err != nil {
			return
		}

		p, err := ps.Update(r.Context(), id, in)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Property updated successfully", toPropertyResponse(p))
	})
}

func handlePatchProperty(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", apperrors.ErrPropertyNotFound)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		patch, err := render.BindAndValidate[models.PropertyPatch](w, r)
		if err != nil {
			return
		}

		p, err := ps.Patch(r.Context(), id, patch)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Property updated successfully", toPropertyResponse(p))
	})
}

func handleDeleteProperty(ps propertyService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id", apperrors.ErrPropertyNotFound)
		if err != nil {
			render.Error(w, err, logger)
			return
		}

		if err := ps.Delete(r.Context(), id); err != nil {
			render.Error(w, err, logger)
			return
		}

		render.JSON(w, http.StatusOK, "Property deleted successfully", nil)
	})
}
