package wasm

import (
	"bytes"
	"testing"
)

func TestAppendUleb(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{624485, []byte{0xE5, 0x8E, 0x26}},
	}
	for _, c := range cases {
		got := appendUleb(nil, c.v)
		if !bytes.Equal(got, c.want) {
			t.Errorf("appendUleb(%d) = %x, want %x", c.v, got, c.want)
		}
	}
}

func TestAppendSleb(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7F}},
		{63, []byte{0x3F}},
		{-64, []byte{0x40}},
		{64, []byte{0xC0, 0x00}},
		{-123456, []byte{0xC0, 0xBB, 0x78}},
	}
	for _, c := range cases {
		got := appendSleb(nil, c.v)
		if !bytes.Equal(got, c.want) {
			t.Errorf("appendSleb(%d) = %x, want %x", c.v, got, c.want)
		}
	}
}

func TestAlignBits(t *testing.T) {
	cases := []struct {
		align uint32
		want  uint64
	}{
		{1, 0},
		{2, 1},
		{4, 2},
		{8, 3},
	}
	for _, c := range cases {
		if got := alignBits(c.align); got != c.want {
			t.Errorf("alignBits(%d) = %d, want %d", c.align, got, c.want)
		}
	}
}

func TestAppendSection_OmitsEmpty(t *testing.T) {
	if got := appendSection(nil, sectionType, nil); len(got) != 0 {
		t.Errorf("empty section produced %x, want nothing", got)
	}
	got := appendSection(nil, sectionExport, []byte{0xAA, 0xBB})
	want := []byte{sectionExport, 0x02, 0xAA, 0xBB}
	if !bytes.Equal(got, want) {
		t.Errorf("appendSection = %x, want %x", got, want)
	}
}

func TestAppendName(t *testing.T) {
	got := appendName(nil, "alloc")
	want := append([]byte{0x05}, "alloc"...)
	if !bytes.Equal(got, want) {
		t.Errorf("appendName = %x, want %x", got, want)
	}
}
