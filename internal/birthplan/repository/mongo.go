package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements a MongoDB-backed repository for birth plans.
// Documents are keyed by a uuid string in _id; a unique index on userId
// enforces one plan per owner.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	idxModel := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := col.Indexes().CreateOne(ctx, idxModel); err != nil {
		logger.Warnf("birth plan owner index not created: %v", err)
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *birthplan.Document) (*birthplan.Document, error) {
	d := copyDoc(doc)
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrOwnerExists
		}
		return nil, err
	}
	return d, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*birthplan.Document, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepo) GetByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error) {
	return m.findOne(ctx, bson.M{"userId": ownerID})
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M) (*birthplan.Document, error) {
	var d birthplan.Document
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Replace overwrites the whole field set; nothing is merged.
func (m *MongoRepo) Replace(ctx context.Context, id string, fields birthplan.Fields) (*birthplan.Document, error) {
	set := bson.M{
		"companionName":         fields.CompanionName,
		"companionRelationship": fields.CompanionRelationship,
		"painReliefMethods":     fields.PainReliefMethods,
		"birthPosition":         fields.BirthPosition,
		"cordClamping":          fields.CordClamping,
		"skinToSkin":            fields.SkinToSkin,
		"breastfeeding":         fields.Breastfeeding,
		"additionalNotes":       fields.AdditionalNotes,
		"updatedAt":             time.Now().UTC().Truncate(time.Millisecond),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d birthplan.Document
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
