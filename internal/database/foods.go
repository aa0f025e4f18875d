package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pantry/internal/model"
)

// FoodDatabase defines food-related database operations
type FoodDatabase interface {
	// List the folded names of every persisted food, for duplicate checks
	ListFoodNames(ctx context.Context) ([]string, error)

	// Insert a batch of foods, skipping rows whose name already exists,
	// returning the count actually inserted
	InsertFoods(ctx context.Context, foods []model.FoodRecord) (int, error)

	// List foods, most recently imported first
	ListFoods(ctx context.Context, limit, offset int) ([]model.FoodRecord, error)

	// Count all foods
	CountFoods(ctx context.Context) (int64, error)
}

// ListFoodNames returns the normalized name of every food in the collection.
// One projected query per import job, not one lookup per row.
func (m *mongoDB) ListFoodNames(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"name_lc": 1, "_id": 0})

	cursor, err := m.foodsCol.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list food names")
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		NameLC string `bson:"name_lc"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error().Err(err).Msg("Failed to decode food names")
		return nil, err
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		names = append(names, doc.NameLC)
	}

	return names, nil
}

// InsertFoods inserts foods that don't already exist, keyed on the folded
// name. $setOnInsert with upsert gives "insert, do nothing on conflict"
// semantics, and the unordered bulk write keeps one conflicting row from
// aborting the rest of the batch.
func (m *mongoDB) InsertFoods(ctx context.Context, foods []model.FoodRecord) (int, error) {
	if len(foods) == 0 {
		return 0, nil
	}

	var models []mongo.WriteModel
	for _, food := range foods {
		if food.NameLC == "" {
			food.NameLC = model.FoldName(food.Name)
		}

		filter := bson.M{"name_lc": food.NameLC}

		writeModel := mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": food}).
			SetUpsert(true)

		models = append(models, writeModel)
	}

	opts := options.BulkWrite().SetOrdered(false)

	result, err := m.foodsCol.BulkWrite(ctx, models, opts)
	if err != nil {
		log.Error().Msgf("Failed to insert foods: %v", err)
		return 0, err
	}

	log.Debug().
		Int("batch", len(foods)).
		Int64("inserted", result.UpsertedCount).
		Msg("Food batch written")

	return int(result.UpsertedCount), nil
}

// ListFoods retrieves foods ordered by import time, newest first.
func (m *mongoDB) ListFoods(ctx context.Context, limit, offset int) ([]model.FoodRecord, error) {
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.M{"imported_at": -1})

	cursor, err := m.foodsCol.Find(ctx, bson.M{}, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list foods")
		return nil, err
	}
	defer cursor.Close(ctx)

	var foods []model.FoodRecord
	if err := cursor.All(ctx, &foods); err != nil {
		log.Error().Err(err).Msg("Failed to decode foods")
		return nil, err
	}

	return foods, nil
}

// CountFoods counts the foods collection.
func (m *mongoDB) CountFoods(ctx context.Context) (int64, error) {
	count, err := m.foodsCol.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to count foods")
		return 0, err
	}

	return count, nil
}
