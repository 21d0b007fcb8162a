//go:build integration
// +build integration

package repositories_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// setupPostgres starts a PostgreSQL container and returns a migrated connection.
func setupPostgres(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := database.OpenAndMigrate(database.DriverPostgres, connStr, &models.Product{}, &models.Order{}, &models.User{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestPostgres_Repositories(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	products := repositories.NewGORMProductRepository(db)
	orders := repositories.NewGORMOrderRepository(db)
	users := repositories.NewGORMUserRepository(db)

	t.Run("decimal prices round-trip exactly", func(t *testing.T) {
		p := &models.Product{Name: "Widget", Price: decimal.RequireFromString("1234567.89")}
		require.NoError(t, products.Create(ctx, p))

		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "1234567.89", got.Price.StringFixed(2))
	})

	t.Run("duplicate email is translated", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, &models.User{Email: "dup@example.com", PasswordHash: "x"}))
		err := users.Create(ctx, &models.User{Email: "dup@example.com", PasswordHash: "y"})
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("orders are listed newest first per owner", func(t *testing.T) {
		owner := uuid.New()
		for i, month := range []time.Month{time.February, time.May, time.January} {
			require.NoError(t, orders.Create(ctx, &models.Order{
				ProductID: uuid.New(),
				Quantity:  i + 1,
				Total:     decimal.NewFromInt(int64(i + 1)),
				ClientID:  uuid.New(),
				OrderDate: time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC),
				OwnerID:   owner,
			}))
		}

		list, err := orders.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, time.May, list[0].OrderDate.UTC().Month())
		assert.Equal(t, time.January, list[2].OrderDate.UTC().Month())
	})
}
