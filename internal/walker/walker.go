package walker

import (
	"github.com/xyproto/clairvoyance/internal/dump"
	"github.com/xyproto/clairvoyance/internal/pte"
	"github.com/xyproto/clairvoyance/internal/vaddr"
)

const entriesPerTable = 512

// level names which nested scan Next is currently resuming.
type level int

const (
	atPml4 level = iota
	atPdpt
	atPd
	atPt
	atDone
)

// Walker is a lazy, ordered cursor over a page-table hierarchy's
// present leaf mappings. It holds at most one loaded table per level
// at a time (spec §5): advancing to a new parent entry drops the
// previous child table and loads the new one from the dump.
//
// Walker is not safe for concurrent use; the whole design (spec §5)
// is a single-threaded pull loop with no locking.
type Walker struct {
	src  dump.Source
	logf func(format string, args ...interface{})

	state level

	pml4Base  uint64
	pml4Table []byte
	pml4Idx   int

	pml4Used, pml4eAddr uint64
	pml4e               pte.Entry

	pdptBase  uint64
	pdptTable []byte
	pdptIdx   int
	pdptUsed  uint64
	pdpteAddr uint64
	pdpte     pte.Entry

	pdBase  uint64
	pdTable []byte
	pdIdx   int
	pdUsed  uint64
	pdeAddr uint64
	pde     pte.Entry

	ptBase  uint64
	ptTable []byte
	ptIdx   int
}

// New constructs a Walker rooted at directoryBase. It returns
// *dump.ErrRootMissing (fatal per spec §7) if the dump has no page
// mapped at that physical address.
func New(src dump.Source, directoryBase uint64, logf func(format string, args ...interface{})) (*Walker, error) {
	root, ok := src.PhysicalPage(directoryBase)
	if !ok {
		return nil, &dump.ErrRootMissing{DirectoryBase: directoryBase}
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Walker{
		src:       src,
		logf:      logf,
		state:     atPml4,
		pml4Base:  directoryBase,
		pml4Table: root,
	}, nil
}

func readEntry(table []byte, index int) pte.Entry {
	off := index * 8
	var raw uint64
	for i := 0; i < 8; i++ {
		raw |= uint64(table[off+i]) << (8 * i)
	}
	return pte.New(raw)
}

// Next returns the next present leaf mapping in ascending
// virtual-address order, or ok=false once the hierarchy is
// exhausted. It never returns an entry with Present=0, and it never
// materializes more than four tables (one per level) at a time.
func (w *Walker) Next() (LeafMapping, bool) {
	for {
		switch w.state {
		case atPml4:
			if w.pml4Idx >= entriesPerTable {
				w.state = atDone
				continue
			}
			idx := w.pml4Idx
			w.pml4Idx++

			e := readEntry(w.pml4Table, idx)
			if !e.Present() {
				continue
			}

			// LargePage is reserved at the PML4 level (spec §4.3); ignore it.
			pdptPhys := e.PhysicalAddress()
			page, ok := w.src.PhysicalPage(pdptPhys)
			if !ok {
				w.logf("warning: PDPT page missing at physical address 0x%x, skipping PML4 entry %d", pdptPhys, idx)
				continue
			}

			w.pml4e = e
			w.pml4eAddr = w.pml4Base + uint64(idx)*8
			w.pml4Used = uint64(idx)

			w.pdptBase = pdptPhys
			w.pdptTable = page
			w.pdptIdx = 0
			w.state = atPdpt
			continue

		case atPdpt:
			if w.pdptIdx >= entriesPerTable {
				w.state = atPml4
				continue
			}
			idx := w.pdptIdx
			w.pdptIdx++

			e := readEntry(w.pdptTable, idx)
			if !e.Present() {
				continue
			}
			entryAddr := w.pdptBase + uint64(idx)*8

			if e.LargePage() {
				va := vaddr.FromIndices(uint16(w.pml4Used), uint16(idx), 0, 0, 0).ToU64()
				leaf := LeafMapping{
					Pml4e:        w.pml4e,
					Pml4eAddress: w.pml4eAddr,
					Pdpte:        e,
					PdpteAddress: entryAddr,
					PhysicalBase: e.PhysicalAddress(),
					VirtualBase:  va,
					Kind:         Huge,
				}
				return leaf, true
			}

			pdPhys := e.PhysicalAddress()
			page, ok := w.src.PhysicalPage(pdPhys)
			if !ok {
				w.logf("warning: PD page missing at physical address 0x%x, skipping PDPT entry %d (PML4 %d)", pdPhys, idx, w.pml4Used)
				continue
			}

			w.pdpte = e
			w.pdpteAddr = entryAddr
			w.pdptUsed = uint64(idx)

			w.pdBase = pdPhys
			w.pdTable = page
			w.pdIdx = 0
			w.state = atPd
			continue

		case atPd:
			if w.pdIdx >= entriesPerTable {
				w.state = atPdpt
				continue
			}
			idx := w.pdIdx
			w.pdIdx++

			e := readEntry(w.pdTable, idx)
			if !e.Present() {
				continue
			}
			entryAddr := w.pdBase + uint64(idx)*8

			if e.LargePage() {
				va := vaddr.FromIndices(uint16(w.pml4Used), uint16(w.pdptUsed), uint16(idx), 0, 0).ToU64()
				leaf := LeafMapping{
					Pml4e:        w.pml4e,
					Pml4eAddress: w.pml4eAddr,
					Pdpte:        w.pdpte,
					PdpteAddress: w.pdpteAddr,
					Pde:          e,
					PdeAddress:   entryAddr,
					PhysicalBase: e.PhysicalAddress(),
					VirtualBase:  va,
					Kind:         Large,
				}
				return leaf, true
			}

			ptPhys := e.PhysicalAddress()
			page, ok := w.src.PhysicalPage(ptPhys)
			if !ok {
				w.logf("warning: PT page missing at physical address 0x%x, skipping PD entry %d (PML4 %d, PDPT %d)", ptPhys, idx, w.pml4Used, w.pdptUsed)
				continue
			}

			w.pde = e
			w.pdeAddr = entryAddr
			w.pdUsed = uint64(idx)

			w.enterPt(page, ptPhys)
			continue

		case atPt:
			idx := w.ptIdx
			if idx >= entriesPerTable {
				w.state = atPd
				continue
			}
			w.ptIdx++

			e := readEntry(w.ptTable, idx)
			if !e.Present() {
				continue
			}
			entryAddr := w.ptBase + uint64(idx)*8

			va := vaddr.FromIndices(uint16(w.pml4Used), uint16(w.pdptUsed), uint16(w.pdUsed), uint16(idx), 0).ToU64()
			leaf := LeafMapping{
				Pml4e:        w.pml4e,
				Pml4eAddress: w.pml4eAddr,
				Pdpte:        w.pdpte,
				PdpteAddress: w.pdpteAddr,
				Pde:          w.pde,
				PdeAddress:   w.pdeAddr,
				Pte:          e,
				PteAddress:   entryAddr,
				PhysicalBase: e.PhysicalAddress(),
				VirtualBase:  va,
				Kind:         Normal,
			}
			return leaf, true

		default:
			return LeafMapping{}, false
		}
	}
}

func (w *Walker) enterPt(page []byte, base uint64) {
	w.ptTable = page
	w.ptBase = base
	w.ptIdx = 0
	w.state = atPt
}
