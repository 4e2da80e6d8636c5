package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLocalLockerSerializesHolders(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Obtain(ctx, "import:commit", time.Second)
	if err != nil {
		t.Fatalf("first obtain failed: %v", err)
	}

	if _, err := l.Obtain(ctx, "import:commit", 120*time.Millisecond); !errors.Is(err, ErrLockNotObtained) {
		t.Fatalf("expected ErrLockNotObtained while held, got %v", err)
	}

	if _, err := l.Obtain(ctx, "other:key", 10*time.Millisecond); err != nil {
		t.Fatalf("independent key should not block: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := l.Obtain(ctx, "import:commit", 10*time.Millisecond); err != nil {
		t.Fatalf("obtain after release failed: %v", err)
	}
}

func TestNoopStockCacheAlwaysMisses(t *testing.T) {
	c := NewNoopStockCache()
	if _, ok, err := c.GetSellable(context.Background(), "2024-05-01", uuid.New()); ok || err != nil {
		t.Fatalf("expected miss without error, got ok=%v err=%v", ok, err)
	}
}
