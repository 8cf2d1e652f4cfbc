package protect

import (
	"testing"

	"github.com/xyproto/clairvoyance/internal/pte"
	"github.com/xyproto/clairvoyance/internal/walker"
)

const (
	wPresent = uint64(1) << 0
	wWrite   = uint64(1) << 1
	wUser    = uint64(1) << 2
	wNoExec  = uint64(1) << 63
)

func TestFoldNormalLeafUsesAllFourLevels(t *testing.T) {
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wUser),
		Pdpte: pte.New(wPresent | wWrite | wUser),
		Pde:   pte.New(wPresent | wWrite | wUser),
		Pte:   pte.New(wPresent | wWrite | wUser),
		Kind:  walker.Normal,
	}
	if got := Fold(leaf); got != UserReadWriteExec {
		t.Fatalf("Fold = %v, want UserReadWriteExec", got)
	}
}

func TestFoldAndsRestrictivePermissionAcrossLevels(t *testing.T) {
	// Writable at every level except the PTE: effective mapping is read-only.
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wUser),
		Pdpte: pte.New(wPresent | wWrite | wUser),
		Pde:   pte.New(wPresent | wWrite | wUser),
		Pte:   pte.New(wPresent | wUser),
		Kind:  walker.Normal,
	}
	if got := Fold(leaf); got != UserRead {
		t.Fatalf("Fold = %v, want UserRead", got)
	}
}

func TestFoldOrsNoExecuteAcrossLevels(t *testing.T) {
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wUser),
		Pdpte: pte.New(wPresent | wWrite | wUser | wNoExec),
		Pde:   pte.New(wPresent | wWrite | wUser),
		Pte:   pte.New(wPresent | wWrite | wUser),
		Kind:  walker.Normal,
	}
	if got := Fold(leaf); got != UserReadWrite {
		t.Fatalf("Fold = %v, want UserReadWrite (NX set anywhere must suppress exec)", got)
	}
}

func TestFoldHugeLeafIgnoresPdeAndPte(t *testing.T) {
	// Pde/Pte are the zero value (not present, all bits clear) for a
	// Huge leaf; Fold must not let their zeroed User/Write bits pull
	// the result down to Kernel/read-only.
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wUser),
		Pdpte: pte.New(wPresent | wWrite | wUser),
		Kind:  walker.Huge,
	}
	if got := Fold(leaf); got != UserReadWriteExec {
		t.Fatalf("Fold = %v, want UserReadWriteExec (levels below a Huge leaf are unused)", got)
	}
}

func TestFoldLargeLeafIgnoresPte(t *testing.T) {
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wUser),
		Pdpte: pte.New(wPresent | wWrite | wUser),
		Pde:   pte.New(wPresent | wWrite | wUser),
		Kind:  walker.Large,
	}
	if got := Fold(leaf); got != UserReadWriteExec {
		t.Fatalf("Fold = %v, want UserReadWriteExec", got)
	}
}

func TestFoldKernelNonExecutable(t *testing.T) {
	leaf := walker.LeafMapping{
		Pml4e: pte.New(wPresent | wWrite | wNoExec),
		Pdpte: pte.New(wPresent | wWrite),
		Pde:   pte.New(wPresent | wWrite),
		Pte:   pte.New(wPresent | wWrite),
		Kind:  walker.Normal,
	}
	if got := Fold(leaf); got != KernelReadWrite {
		t.Fatalf("Fold = %v, want KernelReadWrite", got)
	}
}

func TestFoldNeverReturnsNone(t *testing.T) {
	bits := []uint64{0, wPresent, wWrite, wUser, wNoExec, wWrite | wUser | wNoExec}
	for _, pml4 := range bits {
		for _, pdpt := range bits {
			leaf := walker.LeafMapping{
				Pml4e: pte.New(pml4),
				Pdpte: pte.New(pdpt),
				Kind:  walker.Huge,
			}
			if got := Fold(leaf); got == None {
				t.Fatalf("Fold returned None for pml4=0x%x pdpt=0x%x", pml4, pdpt)
			}
		}
	}
}

func TestFoldEntriesMatchesFold(t *testing.T) {
	pml4 := pte.New(wPresent | wWrite | wUser)
	pdpt := pte.New(wPresent | wWrite | wUser)
	pd := pte.New(wPresent | wUser)
	leaf := walker.LeafMapping{Pml4e: pml4, Pdpte: pdpt, Pde: pd, Kind: walker.Large}

	want := Fold(leaf)
	got := FoldEntries(pml4, pdpt, &pd, nil)
	if got != want {
		t.Fatalf("FoldEntries = %v, want %v (matching Fold)", got, want)
	}
}
