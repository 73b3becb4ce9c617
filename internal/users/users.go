package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrBadCredential = errors.New("invalid credentials")
)

// Conf wraps the users collection.
type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{col: db.Collection("users")}, nil
}

// InsertUser creates an account with a bcrypt-hashed password.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	email := strings.ToLower(strings.TrimSpace(nu.Email))

	n, err := c.col.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return User{}, fmt.Errorf("checking existing user: %w", err)
	}
	if n > 0 {
		return User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	name := nu.Name
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := time.Now().UTC()
	u := User{
		Email:     email,
		Password:  string(hash),
		Name:      name,
		Cart:      []CartEntry{},
		Wishlist:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := c.col.InsertOne(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("inserting user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return u, nil
}

// Authenticate checks email/password and returns the user on success.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := c.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrBadCredential
		}
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrBadCredential
	}
	return u, nil
}

func (c *Conf) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := c.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("finding user by email: %w", err)
	}
	return u, nil
}

func (c *Conf) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrUserNotFound
	}
	var u User
	if err := c.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("finding user %s: %w", id, err)
	}
	return u, nil
}

// UpsertCartItem sets the quantity for a product in the user's cart,
// adding the entry if it is not there yet.
func (c *Conf) UpsertCartItem(ctx context.Context, userID, productID string, quantity int) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("bad product id %q", productID)
	}

	res, err := c.col.UpdateOne(ctx,
		bson.M{"_id": uid, "cart.productId": pid},
		bson.M{"$set": bson.M{"cart.$.quantity": quantity, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("updating cart item: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	entry := CartEntry{ProductID: pid, Quantity: quantity, AddedAt: time.Now().UTC()}
	res, err = c.col.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$push": bson.M{"cart": entry}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("adding cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (c *Conf) RemoveCartItem(ctx context.Context, userID, productID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("bad product id %q", productID)
	}
	_, err = c.col.UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{"$pull": bson.M{"cart": bson.M{"productId": pid}}},
	)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	return nil
}

func (c *Conf) ClearCart(ctx context.Context, userID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	_, err = c.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"cart": []CartEntry{}}})
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// AddToWishlist adds a product id as a set member (no duplicates).
func (c *Conf) AddToWishlist(ctx context.Context, userID, productID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("bad product id %q", productID)
	}
	_, err = c.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$addToSet": bson.M{"wishlist": pid}})
	if err != nil {
		return fmt.Errorf("adding to wishlist: %w", err)
	}
	return nil
}

func (c *Conf) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}
	pid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("bad product id %q", productID)
	}
	_, err = c.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$pull": bson.M{"wishlist": pid}})
	if err != nil {
		return fmt.Errorf("removing from wishlist: %w", err)
	}
	return nil
}

// MergeGuestState merges a guest cart and wishlist into the account after
// login: cart quantities keep the larger value, wishlist is a set union.
// Unknown product ids are skipped by the caller before reaching here.
func (c *Conf) MergeGuestState(ctx context.Context, userID string, cart []CartEntry, wishlist []primitive.ObjectID) (User, error) {
	u, err := c.GetByID(ctx, userID)
	if err != nil {
		return User{}, err
	}

	for _, local := range cart {
		merged := false
		for i := range u.Cart {
			if u.Cart[i].ProductID == local.ProductID {
				if local.Quantity > u.Cart[i].Quantity {
					u.Cart[i].Quantity = local.Quantity
				}
				merged = true
				break
			}
		}
		if !merged {
			if local.AddedAt.IsZero() {
				local.AddedAt = time.Now().UTC()
			}
			u.Cart = append(u.Cart, local)
		}
	}

	for _, pid := range wishlist {
		found := false
		for _, existing := range u.Wishlist {
			if existing == pid {
				found = true
				break
			}
		}
		if !found {
			u.Wishlist = append(u.Wishlist, pid)
		}
	}

	u.UpdatedAt = time.Now().UTC()
	_, err = c.col.UpdateOne(ctx,
		bson.M{"_id": u.ID},
		bson.M{"$set": bson.M{"cart": u.Cart, "wishlist": u.Wishlist, "updatedAt": u.UpdatedAt}},
	)
	if err != nil {
		return User{}, fmt.Errorf("merging guest state: %w", err)
	}
	return u, nil
}

// ListAll returns all users (admin view, passwords excluded by the caller).
func (c *Conf) ListAll(ctx context.Context) ([]User, error) {
	cur, err := c.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return out, nil
}

func (c *Conf) Count(ctx context.Context) (int64, error) {
	n, err := c.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
