package devotp

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	want := Entry{Channel: "email", Destination: "a@x.com", OTP: "123456", ExpiresAt: time.Now().UTC().Add(5 * time.Minute)}
	store.Put(ctx, "challenge-1", want)

	got, ok := store.Get(ctx, "challenge-1")
	if !ok {
		t.Fatal("Get should return entry after Put")
	}
	if got != want {
		t.Errorf("entry = %+v, want %+v", got, want)
	}
}

func TestMemoryStore_Get_Missing(t *testing.T) {
	store := NewMemoryStore()
	if _, ok := store.Get(context.Background(), "nonexistent"); ok {
		t.Error("Get should return false when missing")
	}
}

func TestMemoryStore_Get_ExpiredIsRemoved(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.nowF = func() time.Time { return now }
	ctx := context.Background()
	store.Put(ctx, "c1", Entry{OTP: "111111", ExpiresAt: now.Add(time.Minute)})

	now = now.Add(time.Minute)
	if _, ok := store.Get(ctx, "c1"); ok {
		t.Error("entry at its expiry instant should be gone")
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}
}

func TestMemoryStore_PutSweepsExpired(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.nowF = func() time.Time { return now }
	ctx := context.Background()
	store.Put(ctx, "old", Entry{OTP: "111111", ExpiresAt: now.Add(time.Second)})
	now = now.Add(time.Hour)
	store.Put(ctx, "new", Entry{OTP: "222222", ExpiresAt: now.Add(time.Minute)})
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.Put(ctx, "c1", Entry{OTP: "123456", ExpiresAt: time.Now().Add(time.Minute)})
	store.Delete(ctx, "c1")
	if _, ok := store.Get(ctx, "c1"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			store.Put(ctx, id, Entry{OTP: "000000", ExpiresAt: exp})
			store.Get(ctx, id)
		}(i)
	}
	wg.Wait()
}
