package cache

import (
	"context"
	"testing"

	"paintquote_backend/platform/config"

	"github.com/alicebob/miniredis/v2"
)

func TestClientOptionsTLSOverride(t *testing.T) {
	opt, err := clientOptions("rediss://:pw@example.com:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
	if opt.DB != 2 || opt.Password != "pw" {
		t.Fatalf("unexpected options: db=%d", opt.DB)
	}

	plain, err := clientOptions("redis://localhost:6379/0", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain.TLSConfig != nil {
		t.Fatalf("expected no TLS for plain redis url")
	}
}

func TestNewRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisURL: "redis://" + mr.Addr()}

	client, err := NewRedis(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
}
