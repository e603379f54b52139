package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "value" {
		t.Errorf("got %q, want %q", got, "value")
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestMemoryCache_DeleteClear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), time.Minute)
	_ = c.Set("b", []byte("2"), time.Minute)

	_ = c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be deleted")
	}

	_ = c.Clear()
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be cleared")
	}
}

func TestRequestKey_Distinct(t *testing.T) {
	k1 := RequestKey("https://api.fda.gov/drug/label.json?search=a")
	k2 := RequestKey("https://api.fda.gov/drug/label.json?search=b")
	if k1 == k2 {
		t.Error("distinct URLs must produce distinct keys")
	}
	if k1 != RequestKey("https://api.fda.gov/drug/label.json?search=a") {
		t.Error("key derivation must be deterministic")
	}
}
