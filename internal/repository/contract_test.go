package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/catalog-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract checks the behaviour every ProductRepository backend
// must share. newRepo must return an empty store.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) ProductRepository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	newProduct := func(id, name, price string) *domain.Product {
		return &domain.Product{
			ID:          id,
			Name:        name,
			Description: name + " description",
			Price:       decimal.RequireFromString(price),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	t.Run("Save generates id when empty", func(t *testing.T) {
		repo := newRepo(t)

		saved, err := repo.Save(ctx, newProduct("", "SUV Toyota Honda", "10000000"))
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)

		found, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, saved.ID, found.ID)
		assert.Equal(t, "SUV Toyota Honda", found.Name)
		assert.Equal(t, "SUV Toyota Honda description", found.Description)
		assert.True(t, found.Price.Equal(decimal.NewFromInt(10000000)), "price %s", found.Price)
	})

	t.Run("Save keeps supplied id and replaces", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Save(ctx, newProduct("P001", "Original", "1.10"))
		require.NoError(t, err)

		saved, err := repo.Save(ctx, newProduct("P001", "Replaced", "2.20"))
		require.NoError(t, err)
		assert.Equal(t, "P001", saved.ID)

		found, err := repo.FindByID(ctx, "P001")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Replaced", found.Name)
		assert.True(t, found.Price.Equal(decimal.RequireFromString("2.2")))
	})

	t.Run("Save does not mutate input", func(t *testing.T) {
		repo := newRepo(t)

		in := newProduct("", "Input", "1")
		_, err := repo.Save(ctx, in)
		require.NoError(t, err)
		assert.Empty(t, in.ID)
	})

	t.Run("Price keeps exact decimal digits", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Save(ctx, newProduct("P-exact", "Exact", "12345678901234.0000000001"))
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, "P-exact")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "12345678901234.0000000001", found.Price.String())
	})

	t.Run("Insert rejects duplicate id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Insert(ctx, newProduct("P002", "First", "5"))
		require.NoError(t, err)

		_, err = repo.Insert(ctx, newProduct("P002", "Second", "6"))
		assert.ErrorIs(t, err, ErrDuplicateProduct)

		found, err := repo.FindByID(ctx, "P002")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "First", found.Name)
	})

	t.Run("Insert generates id when empty", func(t *testing.T) {
		repo := newRepo(t)

		first, err := repo.Insert(ctx, newProduct("", "A", "1"))
		require.NoError(t, err)
		second, err := repo.Insert(ctx, newProduct("", "B", "1"))
		require.NoError(t, err)

		assert.NotEmpty(t, first.ID)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("FindByID returns nil for missing id", func(t *testing.T) {
		repo := newRepo(t)

		found, err := repo.FindByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("ExistsByID", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Save(ctx, newProduct("P003", "Exists", "1"))
		require.NoError(t, err)

		exists, err := repo.ExistsByID(ctx, "P003")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByID(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("DeleteByID is immediate and idempotent", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Save(ctx, newProduct("P004", "Doomed", "1"))
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, "P004"))

		found, err := repo.FindByID(ctx, "P004")
		require.NoError(t, err)
		assert.Nil(t, found)

		assert.NoError(t, repo.DeleteByID(ctx, "P004"))
		assert.NoError(t, repo.DeleteByID(ctx, "never-existed"))
	})

	t.Run("FindAll on empty store", func(t *testing.T) {
		repo := newRepo(t)

		count := 0
		for _, err := range repo.FindAll(ctx) {
			require.NoError(t, err)
			count++
		}
		assert.Zero(t, count)
	})

	t.Run("FindAll returns every product", func(t *testing.T) {
		repo := newRepo(t)

		want := map[string]string{}
		for _, p := range []*domain.Product{
			newProduct("P010", "Ten", "10"),
			newProduct("P011", "Eleven", "11"),
			newProduct("P012", "Twelve", "12"),
			newProduct("", "Generated", "13"),
			newProduct("P014", "Fourteen", "14"),
		} {
			saved, err := repo.Save(ctx, p)
			require.NoError(t, err)
			want[saved.ID] = saved.Name
		}

		got := map[string]string{}
		for p, err := range repo.FindAll(ctx) {
			require.NoError(t, err)
			got[p.ID] = p.Name
		}
		assert.Equal(t, want, got)
	})

	t.Run("FindAll stops when consumer breaks", func(t *testing.T) {
		repo := newRepo(t)

		for _, id := range []string{"P020", "P021", "P022"} {
			_, err := repo.Save(ctx, newProduct(id, id, "1"))
			require.NoError(t, err)
		}

		count := 0
		for _, err := range repo.FindAll(ctx) {
			require.NoError(t, err)
			count++
			break
		}
		assert.Equal(t, 1, count)
	})
}
