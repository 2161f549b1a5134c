package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mailcenter-service/internal/domain"
)

func testCache(t *testing.T) (*RedisGroupCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGroupCache(client, 5*time.Minute), mr
}

func TestGroupCacheRoundTrip(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	contact := uuid.New()

	if _, hit, err := c.GetGroups(ctx, contact); err != nil || hit {
		t.Fatalf("cold get: hit=%v err=%v", hit, err)
	}

	groups := []domain.SimpleGroup{
		{
			GroupKey:       "2025-12-09|Letter",
			Day:            "2025-12-09",
			Type:           domain.ItemTypeLetter,
			TotalQuantity:  3,
			Statuses:       []domain.Status{domain.StatusReceived},
			DisplayStatus:  string(domain.StatusReceived),
			LatestReceived: time.Date(2025, 12, 9, 21, 0, 0, 0, time.UTC),
			LatestStatus:   domain.StatusReceived,
		},
	}
	if err := c.SetGroups(ctx, contact, groups); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, hit, err := c.GetGroups(ctx, contact)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 1 || got[0].GroupKey != "2025-12-09|Letter" || got[0].TotalQuantity != 3 {
		t.Fatalf("got = %+v", got)
	}
	if !got[0].LatestReceived.Equal(groups[0].LatestReceived) {
		t.Fatalf("LatestReceived = %v", got[0].LatestReceived)
	}
}

func TestGroupCacheInvalidate(t *testing.T) {
	c, _ := testCache(t)
	ctx := context.Background()
	contact := uuid.New()

	if err := c.SetGroups(ctx, contact, []domain.SimpleGroup{{GroupKey: "2025-12-09|Letter"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.InvalidateContact(ctx, contact); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, hit, err := c.GetGroups(ctx, contact); err != nil || hit {
		t.Fatalf("after invalidate: hit=%v err=%v", hit, err)
	}
}

func TestGroupCacheExpires(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()
	contact := uuid.New()

	if err := c.SetGroups(ctx, contact, []domain.SimpleGroup{{GroupKey: "2025-12-09|Letter"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(6 * time.Minute)

	if _, hit, err := c.GetGroups(ctx, contact); err != nil || hit {
		t.Fatalf("after ttl: hit=%v err=%v", hit, err)
	}
}

func TestGroupCacheTreatsCorruptEntryAsMiss(t *testing.T) {
	c, mr := testCache(t)
	ctx := context.Background()
	contact := uuid.New()

	mr.Set(groupKeyPrefix+contact.String(), "{not json")

	if _, hit, err := c.GetGroups(ctx, contact); err != nil || hit {
		t.Fatalf("corrupt entry: hit=%v err=%v", hit, err)
	}
}
