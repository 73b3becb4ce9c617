package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProductNotFound = errors.New("product not found")

// Conf wraps the products collection. It is both the catalog store and the
// inventory ledger.
type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{col: db.Collection("products")}, nil
}

func (c *Conf) InsertProduct(ctx context.Context, np NewProduct) (Product, error) {
	now := time.Now().UTC()
	p := Product{
		Name:             np.Name,
		Price:            np.Price,
		OriginalPrice:    np.OriginalPrice,
		Image:            np.Image,
		Images:           np.Images,
		Sale:             np.Sale,
		SoldOut:          np.SoldOut,
		Category:         np.Category,
		Description:      np.Description,
		Features:         np.Features,
		Materials:        np.Materials,
		Dimensions:       np.Dimensions,
		Weight:           np.Weight,
		CareInstructions: np.CareInstructions,
		DisplayOrder:     np.DisplayOrder,
		Stock:            np.Stock,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	res, err := c.col.InsertOne(ctx, p)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid
	}
	return p, nil
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	var p Product
	if err := c.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("finding product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns the whole catalog ordered for display.
func (c *Conf) ListProducts(ctx context.Context) ([]Product, error) {
	return c.list(ctx, bson.M{})
}

// ListByCategory returns products in a category, optionally excluding one
// product id (used for "related products" sections).
func (c *Conf) ListByCategory(ctx context.Context, category, excludeID string) ([]Product, error) {
	filter := bson.M{"category": category}
	if excludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
			filter["_id"] = bson.M{"$ne": oid}
		}
	}
	return c.list(ctx, filter)
}

func (c *Conf) list(ctx context.Context, filter bson.M) ([]Product, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "displayOrder", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	var out []Product
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return out, nil
}

func (c *Conf) UpdateProduct(ctx context.Context, id string, np NewProduct) (Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Product{}, ErrProductNotFound
	}
	update := bson.M{"$set": bson.M{
		"name":             np.Name,
		"price":            np.Price,
		"originalPrice":    np.OriginalPrice,
		"image":            np.Image,
		"images":           np.Images,
		"sale":             np.Sale,
		"soldOut":          np.SoldOut,
		"category":         np.Category,
		"description":      np.Description,
		"features":         np.Features,
		"materials":        np.Materials,
		"dimensions":       np.Dimensions,
		"weight":           np.Weight,
		"careInstructions": np.CareInstructions,
		"displayOrder":     np.DisplayOrder,
		"stock":            np.Stock,
		"updatedAt":        time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Product
	err = c.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("updating product %s: %w", id, err)
	}
	return p, nil
}

func (c *Conf) DeleteProduct(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := c.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting product %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (c *Conf) Count(ctx context.Context) (int64, error) {
	n, err := c.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting products: %w", err)
	}
	return n, nil
}

// AdjustStock atomically increments a product's stock counter by delta
// (negative on placement, positive on restore). There is no floor check:
// concurrent checkouts for the last unit can drive stock negative. That
// matches current storefront behavior.
func (c *Conf) AdjustStock(ctx context.Context, productID string, delta int) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrProductNotFound
	}
	res, err := c.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return fmt.Errorf("adjusting stock for %s: %w", productID, err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
