package cache_test

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// unreachableRedis returns a client whose every command fails quickly.
func unreachableRedis(t *testing.T) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCachedProductRepository_FallsThroughWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryProductRepository()
	repo := cache.NewCachedProductRepository(store, unreachableRedis(t))

	product := &models.Product{Name: "Lamp", Price: decimal.RequireFromString("19.90")}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	product.Name = "Desk Lamp"
	require.NoError(t, repo.Update(ctx, product))
	got, err = store.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, product.ID))
	assert.ErrorIs(t, repo.Delete(ctx, product.ID), repositories.ErrNotFound)
}
