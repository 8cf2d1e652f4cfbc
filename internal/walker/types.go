// Package walker implements the lazy, ordered page-table hierarchy
// walker (spec §4.3, component C3): given a dump's physical-page
// lookup and a directory base, it yields present leaf mappings in
// ascending virtual-address order, tolerating missing intermediate
// directories.
package walker

import "github.com/xyproto/clairvoyance/internal/pte"

// PageKind identifies the size of a leaf mapping.
type PageKind int

const (
	// Normal is a 4 KiB page, the PT level leaf.
	Normal PageKind = iota
	// Large is a 2 MiB page, a PDE leaf.
	Large
	// Huge is a 1 GiB page, a PDPTE leaf.
	Huge
)

func (k PageKind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case Large:
		return "Large"
	case Huge:
		return "Huge"
	default:
		return "Unknown"
	}
}

// PageCount returns how many 4 KiB pages a leaf of this kind covers.
func (k PageKind) PageCount() int {
	switch k {
	case Huge:
		return 262144
	case Large:
		return 512
	default:
		return 1
	}
}

// Bytes returns the span of a leaf of this kind in bytes.
func (k PageKind) Bytes() uint64 {
	return uint64(k.PageCount()) * pte.PageSize
}

// LeafMapping is one decoded, present mapping discovered by the
// walker. For a Huge leaf, Pde/Pte and their address fields are the
// zero value; for a Large leaf, Pte and PteAddress are the zero
// value — the intervening levels were never walked.
type LeafMapping struct {
	Pml4e        pte.Entry
	Pml4eAddress uint64
	Pdpte        pte.Entry
	PdpteAddress uint64
	Pde          pte.Entry
	PdeAddress   uint64
	Pte          pte.Entry
	PteAddress   uint64

	PhysicalBase uint64
	VirtualBase  uint64
	Kind         PageKind
}

// MissingLevel names which directory level was absent for a
// MissingPage diagnostic.
type MissingLevel int

const (
	MissingPDPT MissingLevel = iota
	MissingPD
	MissingPT
)

func (l MissingLevel) String() string {
	switch l {
	case MissingPDPT:
		return "PDPT"
	case MissingPD:
		return "PD"
	case MissingPT:
		return "PT"
	default:
		return "?"
	}
}

// MissingPage describes a recoverable InteriorMissing event (spec
// §7): a present entry pointed at a child directory that the dump
// does not contain. The walker itself does not construct MissingPage
// values: it reports each such event as one formatted line (level and
// physical address) to the logf sink passed to New, and continues
// with the next sibling entry.
type MissingPage struct {
	Level           MissingLevel
	PhysicalAddress uint64
}
