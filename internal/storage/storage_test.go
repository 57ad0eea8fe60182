package storage

import (
	"bytes"
	"testing"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	if _, err := m.Get(KeyCart); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := m.Set(KeyCart, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := m.Get(KeyCart)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !bytes.Equal(got, []byte(`[{"id":"1"}]`)) {
		t.Fatalf("unexpected value: %s", got)
	}

	// overwrite
	if err := m.Set(KeyCart, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, _ = m.Get(KeyCart)
	if string(got) != `[]` {
		t.Fatalf("expected overwritten value, got %s", got)
	}

	if err := m.Delete(KeyCart); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := m.Get(KeyCart); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting an absent key is not an error
	if err := m.Delete("nope"); err != nil {
		t.Fatalf("delete of absent key should be a no-op, got %v", err)
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	val := []byte("original")
	if err := m.Set("k", val); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val[0] = 'X'

	got, err := m.Get("k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller slice: %s", got)
	}
}

func TestPebbleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if _, err := p.Get(KeyOrders); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}
	if err := p.Set(KeyOrders, []byte(`[{"id":"ORD-1"}]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := p.Get(KeyOrders)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `[{"id":"ORD-1"}]` {
		t.Fatalf("unexpected value: %s", got)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// values survive a reopen
	p2, err := OpenPebble(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer p2.Close()
	got, err = p2.Get(KeyOrders)
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if string(got) != `[{"id":"ORD-1"}]` {
		t.Fatalf("value lost across reopen: %s", got)
	}

	if err := p2.Delete(KeyOrders); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := p2.Get(KeyOrders); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
