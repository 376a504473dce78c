package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	pkgconfig "github.com/cloud-wave-best-zizon/catalog-service/pkg/config"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type MongoRepository struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

type productDocument struct {
	ID          string               `bson:"_id"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

// NewMongoClient connects and pings the primary before returning.
func NewMongoClient(ctx context.Context, cfg *pkgconfig.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

func NewMongoRepository(collection *mongo.Collection, logger *zap.Logger) *MongoRepository {
	return &MongoRepository{
		collection: collection,
		logger:     logger.Named("mongo"),
	}
}

func (r *MongoRepository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved, doc, err := r.prepare(product)
	if err != nil {
		return nil, err
	}

	_, err = r.collection.ReplaceOne(ctx, bson.M{"_id": saved.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	r.logger.Debug("Document saved", zap.String("product_id", saved.ID))
	return saved, nil
}

func (r *MongoRepository) Insert(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	saved, doc, err := r.prepare(product)
	if err != nil {
		return nil, err
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateProduct
		}
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	r.logger.Debug("Document inserted", zap.String("product_id", saved.ID))
	return saved, nil
}

// prepare assigns an ObjectID hex id when none was supplied, matching what
// Mongo generates for documents without _id.
func (r *MongoRepository) prepare(product *domain.Product) (*domain.Product, productDocument, error) {
	saved := *product
	if saved.ID == "" {
		saved.ID = primitive.NewObjectID().Hex()
	}

	price, err := primitive.ParseDecimal128(saved.Price.String())
	if err != nil {
		return nil, productDocument{}, fmt.Errorf("failed to convert price: %w", err)
	}

	return &saved, productDocument{
		ID:          saved.ID,
		Name:        saved.Name,
		Description: saved.Description,
		Price:       price,
		CreatedAt:   saved.CreatedAt,
		UpdatedAt:   saved.UpdatedAt,
	}, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return doc.toDomain()
}

func (r *MongoRepository) FindAll(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		cursor, err := r.collection.Find(ctx, bson.D{})
		if err != nil {
			yield(nil, fmt.Errorf("failed to find documents: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var doc productDocument
			if err := cursor.Decode(&doc); err != nil {
				yield(nil, fmt.Errorf("failed to decode document: %w", err))
				return
			}

			product, err := doc.toDomain()
			if !yield(product, err) || err != nil {
				return
			}
		}

		if err := cursor.Err(); err != nil {
			yield(nil, fmt.Errorf("error iterating documents: %w", err))
		}
	}
}

func (r *MongoRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count documents: %w", err)
	}
	return count > 0, nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (d productDocument) toDomain() (*domain.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", d.Price.String(), err)
	}

	return &domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
