// Package tape implements the tape-and-region builder (spec §4.5,
// component C5): it drives a page-table walker, folds each leaf's
// permission bits into a single protection class, expands super-pages
// into one tape entry per 4 KiB pixel, and tracks contiguous
// virtual-address runs as a region table.
package tape

import (
	"github.com/xyproto/clairvoyance/internal/protect"
	"github.com/xyproto/clairvoyance/internal/walker"
)

// PageBytes is the size in bytes of one tape pixel.
const PageBytes = 4096

// MaxGapPixels bounds how many filler pixels a single hole between
// two leaves may contribute before the region is closed and a new one
// started at the next leaf.
const MaxGapPixels = 10000

// Region describes a maximal run of tape distances whose virtual
// addresses form a contiguous arithmetic progression with step 4096.
// EndDistance is exclusive; region i's start is region i-1's
// EndDistance (region 0 starts at distance 0).
type Region struct {
	VirtualBase uint64
	EndDistance uint64
}

// Source is the subset of *walker.Walker the builder drives. Declared
// as an interface so tests can supply a canned leaf sequence without
// constructing a full synthetic dump.
type Source interface {
	Next() (walker.LeafMapping, bool)
}

// Build drains src and returns the flattened tape and its region
// table. maxGapPixels bounds how many filler pixels a single hole may
// contribute before the region is closed (spec's MaxGapPixels,
// overridable per run; pass MaxGapPixels for the spec default). logf,
// if non-nil, receives one diagnostic per gap that exceeded
// maxGapPixels (spec's GapOverflow condition); it is never fatal.
func Build(src Source, maxGapPixels int, logf func(format string, args ...interface{})) ([]protect.Protection, []Region) {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	gapCap := uint64(maxGapPixels)

	var tape []protect.Protection
	var regions []Region

	var lastVA uint64
	var regionStart uint64
	first := true

	for {
		leaf, ok := src.Next()
		if !ok {
			break
		}

		if first {
			regionStart = leaf.VirtualBase
			first = false
		} else if leaf.VirtualBase != lastVA+PageBytes {
			missing := (leaf.VirtualBase - (lastVA + PageBytes)) / PageBytes
			if missing > gapCap {
				gapStart := lastVA + PageBytes
				for i := uint64(0); i < gapCap; i++ {
					tape = append(tape, protect.None)
				}
				logf("warning: gap from 0x%x to 0x%x exceeds MaxGapPixels, closing region", gapStart, leaf.VirtualBase-PageBytes)
				regions = append(regions, Region{VirtualBase: regionStart, EndDistance: uint64(len(tape))})
				regionStart = leaf.VirtualBase
			} else {
				for i := uint64(0); i < missing; i++ {
					tape = append(tape, protect.None)
				}
			}
		}

		prot := protect.Fold(leaf)
		pixels := leaf.Kind.PageCount()
		for i := 0; i < pixels; i++ {
			tape = append(tape, prot)
		}
		lastVA = leaf.VirtualBase + uint64(pixels-1)*PageBytes
	}

	if !first {
		regions = append(regions, Region{VirtualBase: regionStart, EndDistance: uint64(len(tape))})
	}

	return tape, regions
}
