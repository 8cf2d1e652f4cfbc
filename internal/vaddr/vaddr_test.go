package vaddr

import "testing"

func TestRoundTripFromIndices(t *testing.T) {
	cases := []struct {
		pml4, pdpt, pd, pt uint16
		offset             uint32
	}{
		{0, 0, 0, 0, 0},
		{0x100, 0, 0, 0, 0},
		{0xFF, 0x1FF, 0x1FF, 0x1FF, 0xFFF},
		{256, 17, 3, 511, 0x123},
	}
	for _, c := range cases {
		va := FromIndices(c.pml4, c.pdpt, c.pd, c.pt, c.offset)
		raw := va.ToU64()
		decoded := FromU64(raw)
		if decoded != va {
			t.Fatalf("round trip mismatch for %+v: got %+v (raw=0x%x)", c, decoded, raw)
		}
	}
}

func TestCanonicalSignExtension(t *testing.T) {
	lo := FromIndices(0xFF, 0, 0, 0, 0) // top bit of Pml4 (bit 8) unset
	if raw := lo.ToU64(); raw>>48 != 0 {
		t.Fatalf("expected zero reserved bits, got 0x%x", raw>>48)
	}

	hi := FromIndices(0x100, 0, 0, 0, 0) // bit 8 set
	if raw := hi.ToU64(); raw>>48 != 0xFFFF {
		t.Fatalf("expected all-ones reserved bits, got 0x%x", raw>>48)
	}
}

func TestKernelBaseConstruction(t *testing.T) {
	// 0xFFFF800000000000 is the canonical kernel-half base: Pml4=256,
	// everything else zero, sign-extended.
	va := FromIndices(256, 0, 0, 0, 0)
	if got, want := va.ToU64(), uint64(0xFFFF800000000000); got != want {
		t.Fatalf("got 0x%x, want 0x%x", got, want)
	}
}
