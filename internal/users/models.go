package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartEntry is a product reference inside a user's cart.
type CartEntry struct {
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// User is the account document.
type User struct {
	ID        primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"-" bson:"password"`
	Name      string               `json:"name,omitempty" bson:"name,omitempty"`
	Cart      []CartEntry          `json:"cart" bson:"cart"`
	Wishlist  []primitive.ObjectID `json:"wishlist" bson:"wishlist"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// NewUser is the signup payload.
type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}
