package driver_test

import (
	"bytes"
	"testing"

	"dol/internal/driver"
	"dol/internal/project"
)

func TestDiskCache_PutGetRoundTrip(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenDiskCache("dol-test")
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashBytes([]byte("input"))
	in := &driver.DiskPayload{
		Schema:     1,
		ModuleName: "m",
		InputHash:  key,
		Wasm:       []byte{0x00, 0x61, 0x73, 0x6D},
		Exports:    []string{"memory", "alloc"},
	}
	if err := cache.Put(key, in); err != nil {
		t.Fatal(err)
	}

	var out driver.DiskPayload
	hit, err := cache.Get(key, &out)
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Fatal("stored entry not found")
	}
	if out.ModuleName != in.ModuleName || !bytes.Equal(out.Wasm, in.Wasm) {
		t.Errorf("payload = %+v, want %+v", out, in)
	}
	if len(out.Exports) != 2 || out.Exports[1] != "alloc" {
		t.Errorf("exports = %v", out.Exports)
	}
}

func TestDiskCache_MissForUnknownKey(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenDiskCache("dol-test")
	if err != nil {
		t.Fatal(err)
	}
	var out driver.DiskPayload
	hit, err := cache.Get(project.HashBytes([]byte("never stored")), &out)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("unknown key reported as hit")
	}
}

func TestDiskCache_SchemaMismatchIsMiss(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenDiskCache("dol-test")
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashBytes([]byte("stale"))
	if err := cache.Put(key, &driver.DiskPayload{Schema: 999, ModuleName: "old"}); err != nil {
		t.Fatal(err)
	}
	var out driver.DiskPayload
	hit, err := cache.Get(key, &out)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("stale schema served as a hit")
	}
}

func TestDiskCache_DropAll(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cache, err := driver.OpenDiskCache("dol-test")
	if err != nil {
		t.Fatal(err)
	}
	key := project.HashBytes([]byte("doomed"))
	if err := cache.Put(key, &driver.DiskPayload{Schema: 1, ModuleName: "m"}); err != nil {
		t.Fatal(err)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	var out driver.DiskPayload
	hit, err := cache.Get(key, &out)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("entry survived DropAll")
	}
}

func TestDiskCache_NilReceiverIsSafe(t *testing.T) {
	var cache *driver.DiskCache
	if err := cache.Put(project.Digest{}, nil); err != nil {
		t.Errorf("nil Put: %v", err)
	}
	hit, err := cache.Get(project.Digest{}, nil)
	if err != nil || hit {
		t.Errorf("nil Get = (%v, %v)", hit, err)
	}
	if err := cache.DropAll(); err != nil {
		t.Errorf("nil DropAll: %v", err)
	}
}
