package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/dm-service/internal/config"
)

func NewMongoClient(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the operation contracts rely on. The
// unique pair_key index is load-bearing: it is what makes find-or-create
// race-free (see ConversationRepository.FindOrCreate).
func EnsureIndexes(ctx context.Context, users, convs, msgs *mongo.Collection) error {
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("subject_uniq"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_idx"),
		},
	})
	if err != nil {
		return err
	}
	_, err = convs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("pair_key_uniq"),
		},
		{
			Keys:    bson.D{{Key: "participant_one", Value: 1}},
			Options: options.Index().SetName("participant_one_idx"),
		},
		{
			Keys:    bson.D{{Key: "participant_two", Value: 1}},
			Options: options.Index().SetName("participant_two_idx"),
		},
	})
	if err != nil {
		return err
	}
	_, err = msgs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
		Options: options.Index().SetName("conversation_created_idx"),
	})
	return err
}
