package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fathima-sithara/dm-service/internal/apperr"
	"github.com/fathima-sithara/dm-service/internal/models"
)

type mongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(coll *mongo.Collection) UserRepository {
	return &mongoUserRepo{coll: coll}
}

func (r *mongoUserRepo) BySubject(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"subject": subject}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) ByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *mongoUserRepo) Insert(ctx context.Context, u *models.User) (string, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID().Hex()
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return "", err
	}
	return u.ID, nil
}

func (r *mongoUserRepo) UpdateProfile(ctx context.Context, id, name, image string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"name": name, "image": image, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepo) SearchByName(ctx context.Context, term string) ([]*models.User, error) {
	filter := bson.M{}
	if t := strings.TrimSpace(term); t != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(t), "$options": "i"}
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}
