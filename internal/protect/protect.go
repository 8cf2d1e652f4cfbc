// Package protect implements the protection folder (spec §4.4,
// component C4): it reduces the PML4E/PDPTE/PDE/PTE permission bits
// along a leaf's path to a single effective access class.
package protect

import (
	"github.com/xyproto/clairvoyance/internal/pte"
	"github.com/xyproto/clairvoyance/internal/walker"
)

// Protection is one of nine effective access classes. The ordinal
// values are the wire encoding used by the record format (spec §6)
// and must not be renumbered.
type Protection int

const (
	None Protection = iota
	UserRead
	UserReadExec
	UserReadWrite
	UserReadWriteExec
	KernelRead
	KernelReadExec
	KernelReadWrite
	KernelReadWriteExec
)

func (p Protection) String() string {
	switch p {
	case None:
		return "None"
	case UserRead:
		return "UserRead"
	case UserReadExec:
		return "UserReadExec"
	case UserReadWrite:
		return "UserReadWrite"
	case UserReadWriteExec:
		return "UserReadWriteExec"
	case KernelRead:
		return "KernelRead"
	case KernelReadExec:
		return "KernelReadExec"
	case KernelReadWrite:
		return "KernelReadWrite"
	case KernelReadWriteExec:
		return "KernelReadWriteExec"
	default:
		return "Invalid"
	}
}

// Fold computes the effective protection for a leaf mapping. Hardware
// access checks take the minimum of U and W across the walk and the
// maximum of NX, so user-accessible and writable are AND-folded while
// no-execute is OR-folded, over whichever levels the leaf's kind
// actually used — the levels below a super-page entry were never
// walked and must not contribute their (zero-value) bits.
func Fold(leaf walker.LeafMapping) Protection {
	user := leaf.Pml4e.UserAccessible() && leaf.Pdpte.UserAccessible()
	writable := leaf.Pml4e.Write() && leaf.Pdpte.Write()
	noExecute := leaf.Pml4e.NoExecute() || leaf.Pdpte.NoExecute()

	if leaf.Kind != walker.Huge {
		user = user && leaf.Pde.UserAccessible()
		writable = writable && leaf.Pde.Write()
		noExecute = noExecute || leaf.Pde.NoExecute()
	}
	if leaf.Kind == walker.Normal {
		user = user && leaf.Pte.UserAccessible()
		writable = writable && leaf.Pte.Write()
		noExecute = noExecute || leaf.Pte.NoExecute()
	}

	return fold(user, writable, !noExecute)
}

// FoldEntries is the same computation as Fold but takes the used
// entries directly, for callers (and tests) that don't have a full
// walker.LeafMapping to hand.
func FoldEntries(pml4e, pdpte pte.Entry, pde, pteEntry *pte.Entry) Protection {
	user := pml4e.UserAccessible() && pdpte.UserAccessible()
	writable := pml4e.Write() && pdpte.Write()
	noExecute := pml4e.NoExecute() || pdpte.NoExecute()

	if pde != nil {
		user = user && pde.UserAccessible()
		writable = writable && pde.Write()
		noExecute = noExecute || pde.NoExecute()
	}
	if pteEntry != nil {
		user = user && pteEntry.UserAccessible()
		writable = writable && pteEntry.Write()
		noExecute = noExecute || pteEntry.NoExecute()
	}

	return fold(user, writable, !noExecute)
}

func fold(user, writable, executable bool) Protection {
	switch {
	case user && !writable && !executable:
		return UserRead
	case user && !writable && executable:
		return UserReadExec
	case user && writable && !executable:
		return UserReadWrite
	case user && writable && executable:
		return UserReadWriteExec
	case !user && !writable && !executable:
		return KernelRead
	case !user && !writable && executable:
		return KernelReadExec
	case !user && writable && !executable:
		return KernelReadWrite
	default:
		return KernelReadWriteExec
	}
}
