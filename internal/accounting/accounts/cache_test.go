package accounts

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/cache"
)

type countingRepo struct {
	*MemoryRepository
	lists atomic.Int32
}

func (r *countingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.MemoryRepository.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return fn(ctx, countingTx{TxRepository: tx, lists: &r.lists})
	})
}

type countingTx struct {
	TxRepository
	lists *atomic.Int32
}

func (tx countingTx) ListAccounts(ctx context.Context) ([]Account, error) {
	tx.lists.Add(1)
	return tx.TxRepository.ListAccounts(ctx)
}

func newCachedService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := &countingRepo{MemoryRepository: NewMemoryRepository()}
	return NewService(repo, nil, NewListCache(cache.NewVersioned(client, "coa", time.Minute), nil)), repo
}

func TestTreeServedFromCacheUntilWrite(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()

	root, err := svc.Create(ctx, CreateInput{Code: "1", NameAr: "الأصول", NameEn: "Assets", Nature: NatureDebit})
	require.NoError(t, err)

	first, err := svc.Tree(ctx)
	require.NoError(t, err)
	second, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, "1", second[0].Code)
	assert.True(t, second[0].Balance.IsZero())
	assert.EqualValues(t, 1, repo.lists.Load())

	_, err = svc.Provision(ctx, ProvisionInput{ParentID: root.ID, NameAr: "نقد", NameEn: "Cash"})
	require.NoError(t, err)

	third, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, third, 2)
	assert.Equal(t, 1, third[0].ChildCount)
	assert.EqualValues(t, 2, repo.lists.Load())
}

func TestListReadsStorageEvenWhenTreeIsCached(t *testing.T) {
	svc, repo := newCachedService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{Code: "1", NameAr: "الأصول", NameEn: "Assets", Nature: NatureDebit})
	require.NoError(t, err)
	_, err = svc.Tree(ctx)
	require.NoError(t, err)

	// A write that bypasses the service leaves the cached tree stale.
	err = repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := tx.InsertAccount(ctx, Account{ID: uuid.New(), Code: "7", NameAr: "س", NameEn: "drift", Level: 3, Nature: NatureDebit})
		return err
	})
	require.NoError(t, err)

	cached, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	fresh, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	vs := CheckIntegrity(fresh)
	require.Len(t, vs, 1)
	assert.Equal(t, ViolationLevelMismatch, vs[0].Kind)
}

func TestTreeFallsBackWhenRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	svc := NewService(NewMemoryRepository(), nil, NewListCache(cache.NewVersioned(client, "coa", time.Minute), nil))
	_, err := svc.Create(context.Background(), CreateInput{Code: "1", NameAr: "الأصول", NameEn: "Assets", Nature: NatureDebit})
	require.NoError(t, err)

	nodes, err := svc.Tree(context.Background())
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
}
