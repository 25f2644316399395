package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	_ = store.GetOrCreate("U1")
	if !mr.Exists("quiz:session:U1") {
		t.Fatalf("expected redis key to be set")
	}

	store.Clear("U1")
	if mr.Exists("quiz:session:U1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("U1"); ok {
		t.Fatalf("expected local session removed")
	}
}
