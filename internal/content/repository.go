package content

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("content not found")

// Repository persists contents. List returns newest first.
type Repository interface {
	List(ctx context.Context, f Filter) ([]*Content, error)
	Get(ctx context.Context, id string) (*Content, error)
	Create(ctx context.Context, in Input) (*Content, error)
	Update(ctx context.Context, id string, in Input) (*Content, error)
	Delete(ctx context.Context, id string) error
}

type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Content
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Content)}
}

func (r *MemoryRepo) List(_ context.Context, f Filter) ([]*Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Content, 0, len(r.store))
	for _, c := range r.store {
		if f.Match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryRepo) Create(_ context.Context, in Input) (*Content, error) {
	now := time.Now().UTC()
	c := &Content{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.apply(c)
	r.mu.Lock()
	r.store[c.ID] = c
	r.mu.Unlock()
	cp := *c
	return &cp, nil
}

func (r *MemoryRepo) Update(_ context.Context, id string, in Input) (*Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	in.apply(c)
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.store[id]; !ok {
		return ErrNotFound
	}
	delete(r.store, id)
	return nil
}

// MongoRepo stores contents in a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (r *MongoRepo) List(ctx context.Context, f Filter) ([]*Content, error) {
	q := bson.M{}
	switch {
	case f.Role == RoleMembers && !f.MembersVisible:
		return []*Content{}, nil
	case f.Role != "":
		q["role"] = f.Role
	case !f.MembersVisible:
		q["role"] = bson.M{"$ne": RoleMembers}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Trimester != 0 {
		q["trimester"] = f.Trimester
	}
	if f.Week != 0 {
		q["weekRangeStart"] = bson.M{"$lte": f.Week}
		q["weekRangeEnd"] = bson.M{"$gte": f.Week}
	}
	cur, err := r.col.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Content{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Content, error) {
	var c Content
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoRepo) Create(ctx context.Context, in Input) (*Content, error) {
	now := time.Now().UTC()
	c := &Content{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.apply(c)
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *MongoRepo) Update(ctx context.Context, id string, in Input) (*Content, error) {
	var c Content
	in.apply(&c)
	set := bson.M{
		"title":          c.Title,
		"text":           c.Text,
		"category":       c.Category,
		"role":           c.Role,
		"trimester":      c.Trimester,
		"weekRangeStart": c.WeekRangeStart,
		"weekRangeEnd":   c.WeekRangeEnd,
		"type":           c.Type,
		"updatedAt":      time.Now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
