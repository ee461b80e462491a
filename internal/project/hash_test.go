package project_test

import (
	"testing"

	"dol/internal/project"
)

func TestHashBytes_Deterministic(t *testing.T) {
	a := project.HashBytes([]byte("payload"))
	b := project.HashBytes([]byte("payload"))
	if a != b {
		t.Errorf("same input hashed differently: %s vs %s", a, b)
	}
	c := project.HashBytes([]byte("payloae"))
	if a == c {
		t.Error("different inputs collided")
	}
}

func TestCombine_OrderSensitive(t *testing.T) {
	a := project.HashBytes([]byte("a"))
	b := project.HashBytes([]byte("b"))
	ab := project.Combine(a, b)
	ba := project.Combine(b, a)
	if ab == ba {
		t.Error("Combine ignores part order")
	}
	if ab == a || ab == b {
		t.Error("Combine returned one of its inputs")
	}
}

func TestDigest_ZeroAndString(t *testing.T) {
	var zero project.Digest
	if !zero.IsZero() {
		t.Error("zero digest not detected")
	}
	d := project.HashBytes([]byte("x"))
	if d.IsZero() {
		t.Error("nonzero digest reported as zero")
	}
	if len(d.String()) != 16 {
		t.Errorf("String length = %d, want 16 hex chars", len(d.String()))
	}
}
