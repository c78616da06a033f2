package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PropertyType1Room       = "1 Room"
	PropertyTypeSelfContain = "Self Contain"
	PropertyTypeFlat        = "Flat"
	PropertyTypeDuplex      = "Duplex"
	PropertyTypeBungalow    = "Bungalow"
)

const (
	PropertyStatusAvailable   = "Available"
	PropertyStatusUnavailable = "Unavailable"
)

type Property struct {
	ID            uuid.UUID
	Bedroom       int
	Bathroom      int
	Electricity   int
	Description   string
	PropertyType  string
	Price         decimal.Decimal
	Address       string
	City          string
	State         string
	Status        string
	CoverImage    string
	BedroomImage  string
	BathroomImage string
	ParlorImage   string
	VideoURL      string
	CreatedOn     time.Time
	UpdatedOn     time.Time
}

// Partial update. Nil fields are left untouched
type PropertyPatch struct {
	Bedroom       *int             `json:"bedroom"`
	Bathroom      *int             `json:"bathroom"`
	Electricity   *int             `json:"electricity"`
	Description   *string          `json:"description"`
	PropertyType  *string          `json:"property_type"`
	Price         *decimal.Decimal `json:"price"`
	Address       *string          `json:"address"`
	City          *string          `json:"city"`
	State         *string          `json:"state"`
	Status        *string          `json:"status"`
	CoverImage    *string          `json:"cover_image"`
	BedroomImage  *string          `json:"bedroom_image"`
	BathroomImage *string          `json:"bathroom_image"`
	ParlorImage   *string          `json:"parlor_image"`
	VideoURL      *string          `json:"video_url"`
}

// Apply copies set fields of the patch onto p
func (patch PropertyPatch) Apply(p *Property) {
	setIf(&p.Bedroom, patch.Bedroom)
	setIf(&p.Bathroom, patch.Bathroom)
	setIf(&p.Electricity, patch.Electricity)
	setIf(&p.Description, patch.Description)
	setIf(&p.PropertyType, patch.PropertyType)
	setIf(&p.Price, patch.Price)
	setIf(&p.Address, patch.Address)
	setIf(&p.City, patch.City)
	setIf(&p.State, patch.State)
	setIf(&p.Status, patch.Status)
	setIf(&p.CoverImage, patch.CoverImage)
	setIf(&p.BedroomImage, patch.BedroomImage)
	setIf(&p.BathroomImage, patch.BathroomImage)
	setIf(&p.ParlorImage, patch.ParlorImage)
	setIf(&p.VideoURL, patch.VideoURL)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

type Favorite struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	PropertyID uuid.UUID
	CreatedAt  time.Time
	Property   Property
}
