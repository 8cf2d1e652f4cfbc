package pte

import "testing"

func TestFlagBits(t *testing.T) {
	e := New(bitPresent | bitWrite | bitUser | bitLargePage)
	if !e.Present() || !e.Write() || !e.UserAccessible() || !e.LargePage() {
		t.Fatalf("expected present/write/user/large, got %+v", e)
	}
	if e.Dirty() || e.Accessed() || e.NoExecute() {
		t.Fatalf("unexpected extra bits set: %+v", e)
	}
}

func TestPageFrameNumber(t *testing.T) {
	// PFN 0x12345 at bits 12..47.
	e := New(uint64(0x12345) << 12)
	if got, want := e.PageFrameNumber(), uint64(0x12345); got != want {
		t.Fatalf("PageFrameNumber() = 0x%x, want 0x%x", got, want)
	}
	if got, want := e.PhysicalAddress(), uint64(0x12345)*PageSize; got != want {
		t.Fatalf("PhysicalAddress() = 0x%x, want 0x%x", got, want)
	}
}

func TestNoExecuteIsTopBit(t *testing.T) {
	e := New(bitNoExecute)
	if !e.NoExecute() {
		t.Fatal("expected NoExecute set")
	}
	if e.Present() {
		t.Fatal("NoExecute bit must not be mistaken for Present")
	}
}

func TestRawPreserved(t *testing.T) {
	const word = uint64(0xDEADBEEFCAFEF001)
	e := New(word)
	if e.Raw != word {
		t.Fatalf("Raw = 0x%x, want 0x%x", e.Raw, word)
	}
}
