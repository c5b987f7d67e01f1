package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/inkpost/blog-platform/internal/core/domain"
)

const ns = "blog.accounts"

func accountDoc(id primitive.ObjectID, refresh string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: "alice"},
		{Key: "email", Value: "alice@x.com"},
		{Key: "full_name", Value: "Alice"},
		{Key: "password_hash", Value: "$2a$10$hash"},
		{Key: "role", Value: domain.RoleUser},
		{Key: "status", Value: domain.StatusActive},
		{Key: "refresh_token", Value: refresh},
		{Key: "created_at", Value: time.Unix(1700000000, 0).UTC()},
		{Key: "updated_at", Value: time.Unix(1700000000, 0).UTC()},
	}
}

func TestAccountRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create returns stored account", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		created, err := repo.Create(context.Background(), &domain.Account{
			Username: "alice",
			Email:    "alice@x.com",
			Role:     domain.RoleUser,
		})
		require.NoError(mt, err)
		require.NotEmpty(mt, created.ID)
		require.Equal(mt, "alice", created.Username)
	})

	mt.Run("create maps duplicate key", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		_, err := repo.Create(context.Background(), &domain.Account{Username: "alice", Email: "alice@x.com"})
		require.ErrorIs(mt, err, domain.ErrAccountExists)
	})

	mt.Run("find by email decodes document", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, accountDoc(id, "tok")))

		account, err := repo.FindByEmail(context.Background(), "alice@x.com")
		require.NoError(mt, err)
		require.Equal(mt, id.Hex(), account.ID)
		require.Equal(mt, "tok", account.RefreshToken)
		require.Equal(mt, "Alice", account.FullName)
	})

	mt.Run("find maps no documents", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByUsername(context.Background(), "ghost")
		require.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})

	mt.Run("find by malformed id is not found", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)

		_, err := repo.FindByID(context.Background(), "not-an-object-id")
		require.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})

	mt.Run("replace refresh token succeeds when matched", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.ReplaceRefreshToken(context.Background(), primitive.NewObjectID().Hex(), "old", "new")
		require.NoError(mt, err)
	})

	mt.Run("replace refresh token rejects superseded value", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ReplaceRefreshToken(context.Background(), primitive.NewObjectID().Hex(), "old", "new")
		require.ErrorIs(mt, err, domain.ErrUnauthorized)
	})

	mt.Run("set refresh token on missing account", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.SetRefreshToken(context.Background(), primitive.NewObjectID().Hex(), "")
		require.ErrorIs(mt, err, domain.ErrAccountNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewAccountRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		id := primitive.NewObjectID().Hex()
		require.NoError(mt, repo.Delete(context.Background(), id))
		require.ErrorIs(mt, repo.Delete(context.Background(), id), domain.ErrAccountNotFound)
	})
}
