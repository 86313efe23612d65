package storage

import (
	"errors"
	"testing"
)

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	key := []byte("key")

	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}
	if ok, err := db.Has(key); err != nil || ok {
		t.Fatalf("has missing = %v, %v", ok, err)
	}

	if err := db.Put(key, []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("get = %q", got)
	}
	if ok, _ := db.Has(key); !ok {
		t.Fatal("has = false after put")
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	key := []byte("key")
	value := []byte("value")
	if err := db.Put(key, value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'X'

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[0] = 'Y'

	again, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(again) != "value" {
		t.Fatalf("returned value aliased store: %q", again)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	key := []byte("key")
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing err = %v, want ErrNotFound", err)
	}
	if err := db.Put(key, []byte("value")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("get = %q", got)
	}
}
