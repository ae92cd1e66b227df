package users

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")

// Directory resolves participants. Implementations never create users on the
// scheduling path; Upsert exists for seeding.
type Directory interface {
	Get(ctx context.Context, id string) (User, error)
	GetMany(ctx context.Context, ids []string) (map[string]User, error)
	Upsert(ctx context.Context, u User) error
}

type MongoDirectory struct {
	col *mongo.Collection
}

func NewMongoDirectory(col *mongo.Collection) *MongoDirectory {
	return &MongoDirectory{col: col}
}

func (d *MongoDirectory) Get(ctx context.Context, id string) (User, error) {
	var u User
	if err := d.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (d *MongoDirectory) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := d.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *MongoDirectory) Upsert(ctx context.Context, u User) error {
	opts := options.Replace().SetUpsert(true)
	_, err := d.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, opts)
	return err
}

type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) Get(ctx context.Context, id string) (User, error) {
	var u User
	if err := d.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (d *GormDirectory) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var found []User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func (d *GormDirectory) Upsert(ctx context.Context, u User) error {
	return d.db.WithContext(ctx).Save(&u).Error
}

type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryDirectory(seed ...User) *MemoryDirectory {
	d := &MemoryDirectory{users: make(map[string]User, len(seed))}
	for _, u := range seed {
		d.users[u.ID] = u
	}
	return d
}

func (d *MemoryDirectory) Get(ctx context.Context, id string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (d *MemoryDirectory) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]User, len(ids))
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Upsert(ctx context.Context, u User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
	return nil
}
