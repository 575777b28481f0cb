package store

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Runs only against a disposable database: TEST_POSTGRES_DSN=postgres://...
func openPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.Migrate(ctx, pool))
	return &Postgres{DB: pool}
}

func TestPostgresLastUnitRace(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	id := "race-" + uuid.NewString()
	require.NoError(t, (&catalog.Repo{DB: s.DB}).Upsert(ctx, catalog.Product{
		ID: id, SKU: id, Name: "Last one", Price: decimal.NewFromInt(5), Stock: 1,
	}))

	var ok, refused atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			err := s.WithinTx(ctx, func(tx Tx) error {
				_, err := tx.DecrementStock(ctx, id, 1)
				return err
			})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, apperr.ErrInsufficientStock):
				refused.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 1, refused.Load())
	p, err := s.Product(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestPostgresRollbackRestoresStock(t *testing.T) {
	s := openPostgres(t)
	ctx := context.Background()
	id := "rb-" + uuid.NewString()
	repo := &catalog.Repo{DB: s.DB}
	require.NoError(t, repo.Upsert(ctx, catalog.Product{ID: id, SKU: id, Name: "Rollback", Price: decimal.NewFromInt(5), Stock: 3}))

	err := s.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.DecrementStock(ctx, id, 2); err != nil {
			return err
		}
		_, err := tx.DecrementStock(ctx, "missing-"+id, 1)
		return err
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	p, err := s.Product(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}
