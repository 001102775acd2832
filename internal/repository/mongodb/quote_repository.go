package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tourello/quotesync/internal/domain/models"
)

// ErrQuoteNotFound indicates the requested quote document does not exist.
var ErrQuoteNotFound = errors.New("quote not found")

// Repository defines the quote persistence operations the pricing core
// relies on.
type Repository interface {
	SaveSync(ctx context.Context, quote models.Quote, newEntries []models.PriceHistoryEntry) error
	GetQuote(ctx context.Context, quoteID string) (*models.Quote, error)
	ListLinked(ctx context.Context) ([]models.Quote, error)
}

// QuoteRepository implements the Repository interface for MongoDB.
type QuoteRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewQuoteRepository connects to MongoDB and verifies the connection.
func NewQuoteRepository(ctx context.Context, uri string, dbName string) (*QuoteRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &QuoteRepository{
		client:   client,
		dbName:   dbName,
		collName: "quotes",
	}, nil
}

// SaveSync upserts the pricing-owned fields of a quote document and
// appends the new history entries. History is append-only: entries are
// pushed, never rewritten.
func (r *QuoteRepository) SaveSync(ctx context.Context, quote models.Quote, newEntries []models.PriceHistoryEntry) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	set := bson.M{
		"parameters": quote.Parameters,
		"sync_state": quote.SyncState,
		"updated_at": quote.UpdatedAt,
	}
	if quote.Price != nil {
		set["price"] = *quote.Price
	}

	update := bson.M{"$set": set}
	if quote.LinkedPackage != nil {
		set["linked_package"] = quote.LinkedPackage
	} else {
		update["$unset"] = bson.M{"linked_package": ""}
	}
	if len(newEntries) > 0 {
		update["$push"] = bson.M{"price_history": bson.M{"$each": newEntries}}
	}

	opts := options.Update().SetUpsert(true)
	if _, err := collection.UpdateByID(ctx, quote.ID, update, opts); err != nil {
		return fmt.Errorf("failed to save quote %s: %w", quote.ID, err)
	}
	return nil
}

// GetQuote loads a quote document by id.
func (r *QuoteRepository) GetQuote(ctx context.Context, quoteID string) (*models.Quote, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	var quote models.Quote
	err := collection.FindOne(ctx, bson.M{"_id": quoteID}).Decode(&quote)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quote %s: %w", quoteID, err)
	}
	return &quote, nil
}

// ListLinked returns every quote with a linked package snapshot, for the
// price-drift audit.
func (r *QuoteRepository) ListLinked(ctx context.Context) ([]models.Quote, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	cursor, err := collection.Find(ctx, bson.M{"linked_package": bson.M{"$ne": nil}})
	if err != nil {
		return nil, fmt.Errorf("failed to list linked quotes: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []models.Quote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode linked quotes: %w", err)
	}
	return quotes, nil
}

// Close closes the MongoDB connection.
func (r *QuoteRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
