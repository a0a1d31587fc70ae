package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
	"github.com/sagarc03/storefront/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

type testDB interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	AdminRepo() storefront.AdminRepo
	ProductRepo() storefront.ProductRepo
	Close() error
}

// setupTestDB connects to a private in-memory database with unique table names.
func setupTestDB(t *testing.T) testDB {
	t.Helper()

	ctx := context.Background()
	suffix := getRandomString(t)
	tables := storefront.Tables{Admins: "admins_" + suffix, Products: "products_" + suffix}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db
}

func newAdmin(email string) storefront.Admin {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return storefront.Admin{
		ID:           uuid.New(),
		Name:         "Ada",
		Email:        email,
		PasswordHash: "hash",
		Role:         storefront.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newProduct(name, category string, price float64, created time.Time) storefront.Product {
	return storefront.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    category,
		Sizes:       []string{"S", "M"},
		Colors:      []string{"red"},
		Stock:       5,
		Status:      storefront.StatusActive,
		MainImage: storefront.AssetDescriptor{
			PublicID:  name + ".jpg",
			URL:       "http://localhost/uploads/products/" + category + "/" + name + ".jpg",
			Storage:   storefront.BackendLocal,
			LocalPath: "products/" + category + "/" + name + ".jpg",
		},
		AdditionalImages: []storefront.AssetDescriptor{},
		CreatedBy:        uuid.New(),
		CreatedAt:        created,
		UpdatedAt:        created,
	}
}
