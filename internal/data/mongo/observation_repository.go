// Package mongo provides MongoDB implementations of the domain repositories.
// Observations are append-only audit records, which suits a document store
// better than the relational payments table.
package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillpay-payments/internal/domain/observation"
)

const (
	// ObservationCollectionName is the name of the observation collection in MongoDB
	ObservationCollectionName = "status_observations"
)

// ObservationRepository implements the observation.Repository interface for MongoDB
type ObservationRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewObservationRepository creates a new MongoDB observation repository
func NewObservationRepository(logger *slog.Logger, db *mongo.Database) observation.Repository {
	return &ObservationRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an observation entry. Duplicates are expected here; the
// audit trail records every delivery, including replays the payment record
// ignored.
func (r *ObservationRepository) Create(ctx context.Context, entry *observation.Entry) error {
	collection := r.db.Collection(ObservationCollectionName)

	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		r.logger.Error("Failed to create observation entry",
			"provider_reference", entry.ProviderReference,
			"channel", string(entry.Channel),
			"error", err)
		return fmt.Errorf("failed to create observation entry: %w", err)
	}

	return nil
}

// ListByReference retrieves paginated observations for a provider reference.
// Results are sorted by observation time in descending order (newest first).
func (r *ObservationRepository) ListByReference(ctx context.Context, reference string, limit, offset int) ([]*observation.Entry, error) {
	collection := r.db.Collection(ObservationCollectionName)

	filter := bson.M{"provider_reference": reference}
	opts := options.Find().
		SetSort(bson.M{"observed_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list observations",
			"provider_reference", reference,
			"error", err)
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*observation.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode observations",
			"provider_reference", reference,
			"error", err)
		return nil, fmt.Errorf("failed to decode observations: %w", err)
	}

	return entries, nil
}

// CountByReference counts the total number of observations for a provider reference
func (r *ObservationRepository) CountByReference(ctx context.Context, reference string) (int64, error) {
	collection := r.db.Collection(ObservationCollectionName)

	filter := bson.M{"provider_reference": reference}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count observations",
			"provider_reference", reference,
			"error", err)
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}

	return count, nil
}
