// Package mongo implements storage.UserStore on MongoDB.
//
// Users live in a single collection with a unique index on the lower-cased
// email. The password hash is projected out of every read except
// GetCredentialsByEmail.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/storage"
)

// CollectionName is the collection holding user documents
const CollectionName = "users"

// userDoc is the stored shape of a user
type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password,omitempty"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toUser() *auth.User {
	return &auth.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         auth.Role(d.Role),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

var withoutPassword = bson.D{{Key: "password", Value: 0}}

// UserStore is a MongoDB backed storage.UserStore
type UserStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	ownsClient bool
	now        func() time.Time
}

// Connect dials MongoDB, verifies the connection and ensures indexes
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*UserStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	store := NewUserStore(client.Database(database))
	store.ownsClient = true

	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewUserStore wraps an existing database handle. Close will not disconnect the client.
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		client:     db.Client(),
		collection: db.Collection(CollectionName),
		now:        time.Now,
	}
}

// EnsureIndexes creates the unique email index
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// CreateUser implements storage.UserWriter.CreateUser
func (s *UserStore) CreateUser(ctx context.Context, user *auth.User) error {
	now := s.now().UTC().Truncate(time.Millisecond)
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// GetUserByID implements storage.UserReader.GetUserByID
func (s *UserStore) GetUserByID(ctx context.Context, id string) (*auth.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id cannot name any stored user
		return nil, storage.ErrNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, withoutPassword)
}

// GetUserByEmail implements storage.UserReader.GetUserByEmail
func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}}, withoutPassword)
}

// GetCredentialsByEmail implements storage.CredentialReader.GetCredentialsByEmail
func (s *UserStore) GetCredentialsByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}}, nil)
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D, projection bson.D) (*auth.User, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	var doc userDoc
	if err := s.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser(), nil
}

// ListUsers implements storage.UserReader.ListUsers
func (s *UserStore) ListUsers(ctx context.Context) ([]*auth.User, error) {
	opts := options.Find().
		SetProjection(withoutPassword).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*auth.User, 0)
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		users = append(users, doc.toUser())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// UpdateUser implements storage.UserWriter.UpdateUser
func (s *UserStore) UpdateUser(ctx context.Context, id string, update auth.UserUpdate) (*auth.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	set := bson.D{{Key: "updatedAt", Value: s.now().UTC().Truncate(time.Millisecond)}}
	if update.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *update.Email})
	}
	if update.PasswordHash != nil {
		set = append(set, bson.E{Key: "password", Value: *update.PasswordHash})
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var doc userDoc
	err = s.collection.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toUser(), nil
}

// DeleteUser implements storage.UserWriter.DeleteUser
func (s *UserStore) DeleteUser(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return storage.ErrNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ping implements storage.HealthChecker.Ping
func (s *UserStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client when the store opened it
func (s *UserStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
