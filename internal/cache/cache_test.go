package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/labsense/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("translate", "google", "mr", "Hemoglobin is ⟦A⟧.")
	b := Key("translate", "google", "hi", "Hemoglobin is ⟦A⟧.")
	c := Key("translate", "google", "mr", "Hemoglobin is ⟦A⟧.")

	if !strings.HasPrefix(a, KeyPrefix+"translate:") {
		t.Errorf("unexpected key prefix: %s", a)
	}
	if a == b {
		t.Error("different languages must give different keys")
	}
	if a != c {
		t.Error("keys must be deterministic")
	}

	// part boundaries matter
	if Key("ns", "ab", "c") == Key("ns", "a", "bc") {
		t.Error("keys must not collide across part boundaries")
	}
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("हिमोग्लोबिन")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'x'

	got, ok := c.Get(ctx, "k")
	if !ok || string(got) != "हिमोग्लोबिन" {
		t.Errorf("expected stored copy, got %q, %v", got, ok)
	}

	_ = c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set(ctx, "short", []byte("v"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(ctx, "short"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	key := Key("speech", "google", "mr", "chunk")
	if err := c.Set(ctx, key, []byte("audio"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(ctx, key)
	if !ok || string(got) != "audio" {
		t.Errorf("expected hit, got %q, %v", got, ok)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ":") {
			t.Errorf("file name must not contain colons: %s", e.Name())
		}
		if strings.HasPrefix(e.Name(), ".entry-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Errorf("Delete of a missing key should succeed, got %v", err)
	}
}

func TestDiskCache_Expired(t *testing.T) {
	ctx := context.Background()
	c := NewDiskCache(t.TempDir(), time.Hour)

	_ = c.Set(ctx, "k", []byte("v"), -time.Second)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_Promotes(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryCache(time.Minute, time.Minute)
	disk := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(memory, disk)

	_ = disk.Set(ctx, "k", []byte("v"), 0)

	if got, ok := c.Get(ctx, "k"); !ok || string(got) != "v" {
		t.Fatalf("expected hit from disk layer, got %q, %v", got, ok)
	}
	if _, ok := memory.Get(ctx, "k"); !ok {
		t.Error("expected disk hit to be promoted into memory")
	}

	_ = c.Delete(ctx, "k")
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestNew(t *testing.T) {
	cfg := model.DefaultConfig().Cache
	cfg.Dir = t.TempDir()

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := c.(*LayeredCache); !ok {
		t.Errorf("expected layered cache by default, got %T", c)
	}

	cfg.Enabled = false
	if c, _ := New(cfg); c != nil {
		t.Error("expected nil cache when disabled")
	}

	cfg.Enabled = true
	cfg.Backend = "bogus"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	if _, err := NewRedisCache(RedisOptions{}); err == nil {
		t.Error("expected error without an address")
	}
	if _, err := NewRedisCache(RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("expected error for unreachable redis")
	}
}
