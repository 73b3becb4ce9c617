package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrOrderNotFound = errors.New("order not found")

// Conf wraps the orders collection.
type Conf struct {
	col *mongo.Collection
}

func NewConf(db *mongo.Database) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{col: db.Collection("orders")}, nil
}

// CreateOrder persists a new order document.
func (c *Conf) CreateOrder(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	res, err := c.col.InsertOne(ctx, o)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		o.ID = oid
	}
	return nil
}

// FindByAnyID looks an order up by any identifier a caller may hold: the
// system orderId, the human orderNumber, the Mongo _id, or the legacy
// gateway order reference. First match wins.
func (c *Conf) FindByAnyID(ctx context.Context, id string) (*Order, error) {
	clauses := bson.A{
		bson.M{"orderId": id},
		bson.M{"orderNumber": id},
		bson.M{"razorpayOrderId": id},
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		clauses = append(clauses, bson.M{"_id": oid})
	}

	var o Order
	err := c.col.FindOne(ctx, bson.M{"$or": clauses}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}
	return &o, nil
}

// FindByIDForEmail is FindByAnyID restricted to orders whose customer
// email matches; used where order ownership must be proven.
func (c *Conf) FindByIDForEmail(ctx context.Context, id, email string) (*Order, error) {
	o, err := c.FindByAnyID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(o.CustomerDetails.Email, email) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// UpdateOrder replaces the stored document with o. Semantics are
// load-mutate-save: two concurrent updates to the same order can race,
// last write wins. Known limitation.
func (c *Conf) UpdateOrder(ctx context.Context, o *Order) error {
	o.UpdatedAt = time.Now().UTC()
	res, err := c.col.ReplaceOne(ctx, bson.M{"orderId": o.OrderID}, o)
	if err != nil {
		return fmt.Errorf("updating order %s: %w", o.OrderID, err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListByEmail returns a customer's orders, newest first.
func (c *Conf) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := c.col.Find(ctx, bson.M{"customerDetails.email": email}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %s: %w", email, err)
	}
	var out []Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	return out, nil
}

// ListAll returns every order, newest first (admin view).
func (c *Conf) ListAll(ctx context.Context) ([]Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := c.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	var out []Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding orders: %w", err)
	}
	return out, nil
}

// Count returns the total number of orders.
func (c *Conf) Count(ctx context.Context) (int64, error) {
	n, err := c.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// CountByEmail returns how many orders a customer has placed.
func (c *Conf) CountByEmail(ctx context.Context, email string) (int64, error) {
	n, err := c.col.CountDocuments(ctx, bson.M{"customerDetails.email": email})
	if err != nil {
		return 0, fmt.Errorf("counting orders for %s: %w", email, err)
	}
	return n, nil
}

// PaidRevenue sums totalAmount over paid orders.
func (c *Conf) PaidRevenue(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paymentStatus": PaymentPaid}}},
		{{Key: "$group", Value: bson.M{"_id": nil, "totalRevenue": bson.M{"$sum": "$totalAmount"}}}},
	}
	cur, err := c.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregating revenue: %w", err)
	}
	var results []struct {
		TotalRevenue float64 `bson:"totalRevenue"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("decoding revenue: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].TotalRevenue, nil
}
