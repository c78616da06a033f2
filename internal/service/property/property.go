package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/repository"
	"github.com/nkiryanov/elbishomes/internal/service/validate"
)

const (
	defaultRooms       = 1
	defaultElectricity = 100
)

// Full property representation accepted on create and update
// Omitted rooms, electricity and status get defaults
type Input struct {
	Bedroom       *int             `json:"bedroom" validate:"omitempty,gte=0,max=100"`
	Bathroom      *int             `json:"bathroom" validate:"omitempty,gte=0,max=100"`
	Electricity   *int             `json:"electricity" validate:"omitempty,gte=0,max=10000"`
	Description   string           `json:"description" validate:"max=5000"`
	PropertyType  string           `json:"property_type" validate:"required,oneof='1 Room' 'Self Contain' Flat Duplex Bungalow"`
	Price         *decimal.Decimal `json:"price" validate:"required,nonnegative"`
	Address       string           `json:"address" validate:"required,max=200"`
	City          string           `json:"city" validate:"required,max=100"`
	State         string           `json:"state" validate:"required,max=100"`
	Status        string           `json:"status" validate:"omitempty,oneof=Available Unavailable"`
	CoverImage    string           `json:"cover_image" validate:"required,url"`
	BedroomImage  string           `json:"bedroom_image" validate:"omitempty,url"`
	BathroomImage string           `json:"bathroom_image" validate:"omitempty,url"`
	ParlorImage   string           `json:"parlor_image" validate:"omitempty,url"`
	VideoURL      string           `json:"video_url" validate:"omitempty,url"`
}

func (in Input) toProperty() models.Property {
	intOr := func(v *int, def int) int {
		if v == nil {
			return def
		}
		return *v
	}

	p := models.Property{
		Bedroom:       intOr(in.Bedroom, defaultRooms),
		Bathroom:      intOr(in.Bathroom, defaultRooms),
		Electricity:   intOr(in.Electricity, defaultElectricity),
		Description:   in.Description,
		PropertyType:  in.PropertyType,
		Address:       in.Address,
		City:          in.City,
		State:         in.State,
		Status:        in.Status,
		CoverImage:    in.CoverImage,
		BedroomImage:  in.BedroomImage,
		BathroomImage: in.BathroomImage,
		ParlorImage:   in.ParlorImage,
		VideoURL:      in.VideoURL,
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}

	return p
}

func inputFromProperty(p models.Property) Input {
	return Input{
		Bedroom:       &p.Bedroom,
		Bathroom:      &p.Bathroom,
		Electricity:   &p.Electricity,
		Description:   p.Description,
		PropertyType:  p.PropertyType,
		Price:         &p.Price,
		Address:       p.Address,
		City:          p.City,
		State:         p.State,
		Status:        p.Status,
		CoverImage:    p.CoverImage,
		BedroomImage:  p.BedroomImage,
		BathroomImage: p.BathroomImage,
		ParlorImage:   p.ParlorImage,
		VideoURL:      p.VideoURL,
	}
}

type PropertyService struct {
	repo repository.PropertyRepo
}

func NewService(repo repository.PropertyRepo) *PropertyService {
	return &PropertyService{repo: repo}
}

// Most recently updated first
// No properties at all is reported as apperrors.ErrPropertyNotFound
func (s *PropertyService) List(ctx context.Context) ([]models.Property, error) {
	properties, err := s.repo.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}

	if len(properties) == 0 {
		return nil, apperrors.ErrPropertyNotFound
	}

	return properties, nil
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (models.Property, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return p, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

func (s *PropertyService) Create(ctx context.Context, in Input) (models.Property, error) {
	if err := validate.Struct(in); err != nil {
		return models.Property{}, err
	}

	p, err := s.repo.CreateProperty(ctx, in.toProperty())
	if err != nil {
		return p, fmt.Errorf("create property: %w", err)
	}

	return p, nil
}

// Replace all fields of the property
func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, in Input) (models.Property, error) {
	if err := validate.Struct(in); err != nil {
		return models.Property{}, err
	}

	p := in.toProperty()
	p.ID = id

	p, err := s.repo.UpdateProperty(ctx, p)
	if err != nil {
		return p, fmt.Errorf("update property: %w", err)
	}

	return p, nil
}

// Change only fields set in the patch
// The result is validated as a whole
func (s *PropertyService) Patch(ctx context.Context, id uuid.UUID, patch models.PropertyPatch) (models.Property, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return p, fmt.Errorf("patch property: %w", err)
	}

	patch.Apply(&p)
	if err := validate.Struct(inputFromProperty(p)); err != nil {
		return models.Property{}, err
	}
	if p.Status == "" {
		return models.Property{}, apperrors.NewValidationError(map[string]string{"status": "This field is required"})
	}

	p, err = s.repo.UpdateProperty(ctx, p)
	if err != nil {
		return p, fmt.Errorf("patch property: %w", err)
	}

	return p, nil
}

func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}
