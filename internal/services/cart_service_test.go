package services_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"whatsstore/internal/domain"
	"whatsstore/internal/services"
)

func ids(items []domain.CartItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestCartStore_AddMergesAndKeepsInsertionOrder(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, shirt, 1))
	require.NoError(t, s.Add(ctx, mug, 2))
	require.NoError(t, s.Add(ctx, shirt, 3))

	items := s.Items()
	require.Equal(t, []string{"shirt-01", "mug-01"}, ids(items))
	require.Equal(t, 4, items[0].Quantity)
	require.Equal(t, 2, items[1].Quantity)
	require.True(t, s.Total().Equal(dec("184.60")), s.Total().String())
}

func TestCartStore_AddClampsBelowOne(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, mug, 0))
	require.NoError(t, s.Add(ctx, mug, -4))
	require.Equal(t, 2, s.Items()[0].Quantity)
}

func TestCartStore_UpdateQuantity(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, shirt, 2))

	require.NoError(t, s.UpdateQuantity(ctx, "shirt-01", 0))
	require.Equal(t, 1, s.Items()[0].Quantity)

	require.NoError(t, s.UpdateQuantity(ctx, "shirt-01", 7))
	require.Equal(t, 7, s.Items()[0].Quantity)

	before := s.Items()
	require.NoError(t, s.UpdateQuantity(ctx, "nope", 3))
	require.Empty(t, cmp.Diff(before, s.Items(), decimalEqual))
	require.Equal(t, 4, p.saves)
}

func TestCartStore_RemoveAndClear(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, shirt, 1))
	require.NoError(t, s.Add(ctx, shoe, 1))
	require.NoError(t, s.Add(ctx, mug, 1))

	require.NoError(t, s.Remove(ctx, "shoe-01"))
	require.Equal(t, []string{"shirt-01", "mug-01"}, ids(s.Items()))
	require.NoError(t, s.Remove(ctx, "missing"))
	require.Equal(t, 2, s.Len())

	require.NoError(t, s.Clear(ctx))
	require.Empty(t, s.Items())
	require.True(t, s.Total().IsZero())
}

func TestCartStore_ItemsReturnsCopy(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.Add(context.Background(), mug, 1))

	items := s.Items()
	items[0].Quantity = 99
	items[0].Name = "changed"
	require.Equal(t, 1, s.Items()[0].Quantity)
	require.Equal(t, "Enamel Mug", s.Items()[0].Name)
}

func TestCartStore_FailedSaveKeepsPreviousCart(t *testing.T) {
	s, p := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, shirt, 1))

	p.setFail(true)
	require.Error(t, s.Add(ctx, mug, 1))
	require.Error(t, s.Clear(ctx))
	require.Equal(t, []string{"shirt-01"}, ids(s.Items()))
	require.Equal(t, 1, s.Items()[0].Quantity)
}

func TestCartStore_RestoresSnapshot(t *testing.T) {
	p := newMemPersister()
	ctx := context.Background()
	first, err := services.NewCartStore(ctx, "sid", p)
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, shirt, 2))
	require.NoError(t, first.Add(ctx, mug, 1))

	again, err := services.NewCartStore(ctx, "sid", p)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(first.Items(), again.Items(), decimalEqual))
	require.True(t, again.Total().Equal(first.Total()))
}

func TestCartStore_CorruptSnapshotResetsToEmpty(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":      `{{{`,
		"wrong shape":   `{"id":"x"}`,
		"zero quantity": `[{"id":"mug-01","price":1,"quantity":0}]`,
		"duplicate ids": `[{"id":"a","quantity":1},{"id":"a","quantity":2}]`,
	} {
		t.Run(name, func(t *testing.T) {
			p := newMemPersister()
			p.data["sid"] = []byte(raw)
			s, err := services.NewCartStore(context.Background(), "sid", p)
			require.NoError(t, err)
			require.Empty(t, s.Items())
			require.True(t, s.Total().IsZero())
		})
	}
}

func TestCartStore_TotalMatchesItemsAfterAnySequence(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	products := []domain.Product{shirt, shoe, mug}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(4) {
		case 0:
			require.NoError(t, s.Add(ctx, p, rng.Intn(5)-1))
		case 1:
			require.NoError(t, s.Remove(ctx, p.ID))
		case 2:
			require.NoError(t, s.UpdateQuantity(ctx, p.ID, rng.Intn(6)-2))
		case 3:
			if rng.Intn(10) == 0 {
				require.NoError(t, s.Clear(ctx))
			}
		}
		items := s.Items()
		require.True(t, s.Total().Equal(domain.Total(items)))
		seen := map[string]bool{}
		for _, it := range items {
			require.GreaterOrEqual(t, it.Quantity, 1)
			require.False(t, seen[it.ID], "duplicate line %s", it.ID)
			seen[it.ID] = true
		}
	}
}

func TestCartStore_ConcurrentAdds(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Add(ctx, mug, 1)
		}()
	}
	wg.Wait()
	require.Equal(t, 20, s.Items()[0].Quantity)
}

func TestCartService_SessionsAreSeparate(t *testing.T) {
	svc := services.NewCartService(newMemPersister())
	ctx := context.Background()

	a, err := svc.Store(ctx, "a")
	require.NoError(t, err)
	b, _ := svc.Store(ctx, "b")
	require.NoError(t, a.Add(ctx, shoe, 1))

	again, _ := svc.Store(ctx, "a")
	require.Equal(t, 1, again.Len())
	require.Zero(t, b.Len())
}

func TestCartService_InstancesSharingPersisterKeepEachOthersLines(t *testing.T) {
	p := newMemPersister()
	one := services.NewCartService(p)
	two := services.NewCartService(p)
	ctx := context.Background()

	a, err := one.Store(ctx, "sid")
	require.NoError(t, err)
	b, err := two.Store(ctx, "sid")
	require.NoError(t, err)

	require.NoError(t, a.Add(ctx, shirt, 1))
	require.NoError(t, b.Add(ctx, mug, 1))
	require.Equal(t, []string{"shirt-01", "mug-01"}, ids(b.Items()))

	restored, err := services.NewCartStore(ctx, "sid", p)
	require.NoError(t, err)
	require.Equal(t, []string{"shirt-01", "mug-01"}, ids(restored.Items()))

	fresh, err := one.Store(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, 2, fresh.Len())
}

func TestCartService_ConcurrentRequestsOnOneSession(t *testing.T) {
	svc := services.NewCartService(newMemPersister())
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := svc.Store(ctx, "sid")
			if err == nil {
				_ = s.Add(ctx, mug, 1)
			}
		}()
	}
	wg.Wait()

	s, err := svc.Store(ctx, "sid")
	require.NoError(t, err)
	require.Equal(t, 20, s.Items()[0].Quantity)
	require.Zero(t, svc.Pending())
}
