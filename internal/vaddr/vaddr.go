// Package vaddr decomposes and reconstructs 64-bit x86-64 virtual
// addresses. It is a pure bit-level codec: no I/O, no notion of
// whether a mapping backing an address actually exists.
package vaddr

const (
	offsetBits = 12
	indexBits  = 9
	indexMask  = 1<<indexBits - 1
	offsetMask = 1<<offsetBits - 1
)

// VirtualAddress is a decomposed 64-bit x86-64 virtual address:
// Offset(12) | Pt(9) | Pd(9) | Pdpt(9) | Pml4(9) | Reserved(16). The
// raw 64-bit value is always reconstructible from the four indices
// and the offset; Reserved is never stored independently, it is
// derived from Pml4's sign bit on reconstruction.
type VirtualAddress struct {
	Pml4   uint16
	Pdpt   uint16
	Pd     uint16
	Pt     uint16
	Offset uint32
}

// FromIndices builds a VirtualAddress from its four 9-bit table
// indices and a 12-bit page offset. Each index and the offset are
// masked to their field width, so callers cannot smuggle bits into
// the reserved region through an oversized index.
func FromIndices(pml4, pdpt, pd, pt uint16, offset uint32) VirtualAddress {
	return VirtualAddress{
		Pml4:   pml4 & indexMask,
		Pdpt:   pdpt & indexMask,
		Pd:     pd & indexMask,
		Pt:     pt & indexMask,
		Offset: offset & offsetMask,
	}
}

// FromU64 decomposes a raw 64-bit virtual address into its four
// indices and offset, discarding the reserved/sign-extension bits.
func FromU64(raw uint64) VirtualAddress {
	return VirtualAddress{
		Offset: uint32(raw & offsetMask),
		Pt:     uint16((raw >> offsetBits) & indexMask),
		Pd:     uint16((raw >> (offsetBits + indexBits)) & indexMask),
		Pdpt:   uint16((raw >> (offsetBits + 2*indexBits)) & indexMask),
		Pml4:   uint16((raw >> (offsetBits + 3*indexBits)) & indexMask),
	}
}

// ToU64 reconstructs the canonical 64-bit virtual address. Canonical
// form requires bits 63..48 to equal bit 47 (the top bit of Pml4): if
// Pml4's own top bit (bit 8 of the 9-bit index) is set, the reserved
// field is sign-extended to all ones, otherwise it is zero.
func (v VirtualAddress) ToU64() uint64 {
	raw := uint64(v.Offset&offsetMask) |
		uint64(v.Pt&indexMask)<<offsetBits |
		uint64(v.Pd&indexMask)<<(offsetBits+indexBits) |
		uint64(v.Pdpt&indexMask)<<(offsetBits+2*indexBits) |
		uint64(v.Pml4&indexMask)<<(offsetBits+3*indexBits)

	if v.Pml4>>8&1 == 1 {
		raw |= 0xFFFF_0000_0000_0000
	}
	return raw
}
