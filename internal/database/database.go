package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pantry/internal/config"
)

type Database interface {
	Health() error
	Close(ctx context.Context) error
	FoodDatabase
}

type mongoDB struct {
	client *mongo.Client
	db     *mongo.Database

	foodsCol *mongo.Collection
}

func New(config *config.Config) (Database, error) {
	clientOptions := options.Client().ApplyURI(config.MongoDB.URI)
	if config.MongoDB.Username != "" {
		clientOptions.SetAuth(options.Credential{
			Username: config.MongoDB.Username,
			Password: config.MongoDB.Password,
		})
	}

	client, err := mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		return nil, err
	}

	db := client.Database(config.MongoDB.DB)

	foodsCol := db.Collection("foods")
	// The unique index on the folded name is what makes concurrent imports
	// safe: inserts racing past the dedup pre-check collapse into conflicts
	// the bulk writer skips.
	foodIndexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name_lc", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "imported_at", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err = foodsCol.Indexes().CreateMany(context.Background(), foodIndexModels)
	if err != nil {
		log.Warn().Err(err).Str("Collection", "Foods").Msg("Error creating indexes")
	}

	return &mongoDB{
		client:   client,
		db:       db,
		foodsCol: foodsCol,
	}, nil
}

// Health implements Database interface
func (m *mongoDB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := m.client.Ping(ctx, nil)
	if err != nil {
		log.Error().Msgf("Database health error: %v", err)
		return err
	}

	return nil
}

// Close disconnects the underlying client.
func (m *mongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
