package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/storage"
)

const ns = "warden.users"

func userBSON(id primitive.ObjectID, email string, withPassword bool) bson.D {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Ann"},
		{Key: "email", Value: email},
		{Key: "role", Value: "admin"},
		{Key: "createdAt", Value: created},
		{Key: "updatedAt", Value: created},
	}
	if withPassword {
		doc = append(doc, bson.E{Key: "password", Value: "$2a$10$hash"})
	}
	return doc
}

func TestUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns object id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &auth.User{Name: "Ann", Email: "ann@example.com", PasswordHash: "h", Role: auth.RoleUser}
		require.NoError(mt, store.CreateUser(ctx, user))

		_, err := primitive.ObjectIDFromHex(user.ID)
		assert.NoError(mt, err)
		assert.False(mt, user.CreatedAt.IsZero())
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: warden.users index: email_unique",
		}))

		err := store.CreateUser(ctx, &auth.User{Name: "Ann", Email: "ann@example.com"})
		assert.ErrorIs(mt, err, storage.ErrDuplicateEmail)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userBSON(id, "ann@example.com", false)))

		user, err := store.GetUserByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), user.ID)
		assert.Equal(mt, "ann@example.com", user.Email)
		assert.Equal(mt, auth.RoleAdmin, user.Role)
		assert.Empty(mt, user.PasswordHash)
	})

	mt.Run("get by id not found", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.GetUserByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("malformed id is not found", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)

		_, err := store.GetUserByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, storage.ErrNotFound)
		_, err = store.UpdateUser(ctx, "xyz", auth.UserUpdate{})
		assert.ErrorIs(mt, err, storage.ErrNotFound)
		assert.ErrorIs(mt, store.DeleteUser(ctx, "xyz"), storage.ErrNotFound)
	})

	mt.Run("credentials by email include hash", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userBSON(id, "ann@example.com", true)))

		user, err := store.GetCredentialsByEmail(ctx, "ann@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, "$2a$10$hash", user.PasswordHash)
	})

	mt.Run("list users", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			userBSON(primitive.NewObjectID(), "a@example.com", false),
			userBSON(primitive.NewObjectID(), "b@example.com", false),
		))

		users, err := store.ListUsers(ctx)
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "a@example.com", users[0].Email)
		assert.Equal(mt, "b@example.com", users[1].Email)
	})

	mt.Run("update returns new document", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: userBSON(id, "new@example.com", false)},
		})

		email := "new@example.com"
		user, err := store.UpdateUser(ctx, id.Hex(), auth.UserUpdate{Email: &email})
		require.NoError(mt, err)
		assert.Equal(mt, "new@example.com", user.Email)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		name := "x"
		_, err := store.UpdateUser(ctx, primitive.NewObjectID().Hex(), auth.UserUpdate{Name: &name})
		assert.ErrorIs(mt, err, storage.ErrNotFound)
	})

	mt.Run("update duplicate email", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		}))

		email := "taken@example.com"
		_, err := store.UpdateUser(ctx, primitive.NewObjectID().Hex(), auth.UserUpdate{Email: &email})
		assert.ErrorIs(mt, err, storage.ErrDuplicateEmail)
	})

	mt.Run("delete", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		assert.NoError(mt, store.DeleteUser(ctx, primitive.NewObjectID().Hex()))
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		assert.ErrorIs(mt, store.DeleteUser(ctx, primitive.NewObjectID().Hex()), storage.ErrNotFound)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, store.EnsureIndexes(ctx))
	})

	mt.Run("close does not disconnect borrowed client", func(mt *mtest.T) {
		store := NewUserStore(mt.DB)
		assert.NoError(mt, store.Close())
	})
}
