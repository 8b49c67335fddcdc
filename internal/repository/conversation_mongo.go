package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/models"
)

type mongoConversationRepo struct {
	coll *mongo.Collection
}

func NewMongoConversationRepository(coll *mongo.Collection) ConversationRepository {
	return &mongoConversationRepo{coll: coll}
}

// FindOrCreate is a single upsert keyed on the canonical pair key: concurrent
// callers racing on the same pair hit the same document, and the unique index
// on pair_key backstops the upsert. Whoever inserts wins; everyone reads the
// same conversation back.
func (r *mongoConversationRepo) FindOrCreate(ctx context.Context, a, b string) (*models.Conversation, bool, error) {
	key := models.PairKey(a, b)
	candidateID := primitive.NewObjectID().Hex()

	filter := bson.M{"pair_key": key}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":             candidateID,
		"participant_one": a,
		"participant_two": b,
		"pair_key":        key,
		"created_at":      time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conv models.Conversation
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&conv)
	if mongo.IsDuplicateKeyError(err) {
		// lost the upsert race; the winner's document is there now
		if err := r.coll.FindOne(ctx, filter).Decode(&conv); err != nil {
			return nil, false, err
		}
		return &conv, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &conv, conv.ID == candidateID, nil
}

func (r *mongoConversationRepo) ByID(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *mongoConversationRepo) ByParticipant(ctx context.Context, userID string) ([]*models.Conversation, error) {
	cur, err := r.coll.Find(ctx, bson.M{"$or": []bson.M{
		{"participant_one": userID},
		{"participant_two": userID},
	}}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.Conversation{}
	for cur.Next(ctx) {
		var conv models.Conversation
		if err := cur.Decode(&conv); err != nil {
			return nil, err
		}
		out = append(out, &conv)
	}
	return out, cur.Err()
}
