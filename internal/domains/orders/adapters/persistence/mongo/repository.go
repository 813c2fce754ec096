package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

const collectionName = "orders"

// Repository stores orders as MongoDB documents.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository binds the orders collection and ensures its secondary indexes.
func NewRepository(ctx context.Context, db *mongo.Database) (*Repository, error) {
	if db == nil {
		return nil, errors.New("mongo database is nil")
	}
	collection := db.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create order indexes: %w", err)
	}
	return &Repository{collection: collection}, nil
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	stored := order.Clone()
	stored.Version = 1
	if _, err := r.collection.InsertOne(ctx, toDocument(stored)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ports.ErrExists
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}
	return stored, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain()
}

// Update writes the mutable fields only when the stored version still matches the caller's copy.
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	set := bson.M{
		"status":     string(order.Status),
		"notes":      order.Notes,
		"updated_at": order.UpdatedAt,
	}
	if order.CompletedAt != nil {
		set["completed_at"] = *order.CompletedAt
	}
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": order.ID, "version": order.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrConflict
	}
	updated := order.Clone()
	updated.Version++
	return updated, nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	query := bson.M{}
	if filter.BuyerID != "" {
		query["buyer_id"] = filter.BuyerID
	}
	if filter.SellerID != "" {
		query["seller_id"] = filter.SellerID
	}
	if filter.ParticipantID != "" {
		query["$or"] = bson.A{
			bson.M{"buyer_id": filter.ParticipantID},
			bson.M{"seller_id": filter.ParticipantID},
		}
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	orders := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.DeletedCount == 0 {
		return ports.ErrNotFound
	}
	return nil
}

var _ ports.Repository = (*Repository)(nil)
