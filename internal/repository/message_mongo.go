package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/dm-service/internal/models"
)

type mongoMessageRepo struct {
	coll *mongo.Collection
}

func NewMongoMessageRepository(coll *mongo.Collection) MessageRepository {
	return &mongoMessageRepo{coll: coll}
}

func (r *mongoMessageRepo) Insert(ctx context.Context, m *models.Message) (*models.Message, error) {
	m.ID = primitive.NewObjectID().Hex()
	m.CreatedAt = time.Now().UTC()
	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mongoMessageRepo) ByConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, cur.Err()
}

func (r *mongoMessageRepo) Latest(ctx context.Context, conversationID string) (*models.Message, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var m models.Message
	if err := r.coll.FindOne(ctx, bson.M{"conversation_id": conversationID}, opts).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
