package products

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the catalog document. Stock is mutated only through
// AdjustStock, never written directly by handlers.
type Product struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name             string             `json:"name" bson:"name"`
	Price            float64            `json:"price" bson:"price"`
	OriginalPrice    float64            `json:"originalPrice,omitempty" bson:"originalPrice,omitempty"`
	Image            string             `json:"image" bson:"image"`
	Images           []string           `json:"images,omitempty" bson:"images,omitempty"`
	Sale             bool               `json:"sale" bson:"sale"`
	SoldOut          bool               `json:"soldOut" bson:"soldOut"`
	Category         string             `json:"category" bson:"category"`
	Description      string             `json:"description" bson:"description"`
	Features         []string           `json:"features,omitempty" bson:"features,omitempty"`
	Materials        []string           `json:"materials,omitempty" bson:"materials,omitempty"`
	Dimensions       string             `json:"dimensions,omitempty" bson:"dimensions,omitempty"`
	Weight           string             `json:"weight,omitempty" bson:"weight,omitempty"`
	CareInstructions []string           `json:"careInstructions,omitempty" bson:"careInstructions,omitempty"`
	DisplayOrder     int                `json:"displayOrder" bson:"displayOrder"`
	Stock            int                `json:"stock" bson:"stock"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NewProduct is the creation/update request payload.
type NewProduct struct {
	Name             string   `json:"name" validate:"required"`
	Price            float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice    float64  `json:"originalPrice"`
	Image            string   `json:"image" validate:"required"`
	Images           []string `json:"images"`
	Sale             bool     `json:"sale"`
	SoldOut          bool     `json:"soldOut"`
	Category         string   `json:"category" validate:"required"`
	Description      string   `json:"description" validate:"required"`
	Features         []string `json:"features"`
	Materials        []string `json:"materials"`
	Dimensions       string   `json:"dimensions"`
	Weight           string   `json:"weight"`
	CareInstructions []string `json:"careInstructions"`
	DisplayOrder     int      `json:"displayOrder"`
	Stock            int      `json:"stock"`
}
