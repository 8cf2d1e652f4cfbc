package dump

// MemSource is an in-memory Source, built up page by page. It backs
// the unit and end-to-end tests (spec §8 describes several scenarios
// as "mockable by constructing a synthetic dump") and is cheap enough
// to also use from small scripts that don't want to round-trip a real
// dump file just to exercise the engine.
type MemSource struct {
	pages   map[uint64][]byte
	base    uint64
	dt      Type
}

// NewMemSource creates an empty synthetic dump with the given default
// directory base and dump type.
func NewMemSource(directoryBase uint64, dt Type) *MemSource {
	return &MemSource{
		pages: make(map[uint64][]byte),
		base:  directoryBase,
		dt:    dt,
	}
}

// SetPage installs a 4 KiB page at physical address pa. The slice is
// copied so callers can reuse their buffer; panics if data is not
// exactly PageSize bytes, since a short page would silently corrupt
// every decode downstream.
func (m *MemSource) SetPage(pa uint64, data []byte) {
	if len(data) != PageSize {
		panic("dump: SetPage requires exactly PageSize bytes")
	}
	cp := make([]byte, PageSize)
	copy(cp, data)
	m.pages[pa] = cp
}

// PhysicalPage implements Source.
func (m *MemSource) PhysicalPage(pa uint64) ([]byte, bool) {
	p, ok := m.pages[pa]
	return p, ok
}

// DirectoryTableBase implements Source.
func (m *MemSource) DirectoryTableBase() uint64 { return m.base }

// DumpType implements Source.
func (m *MemSource) DumpType() Type { return m.dt }

// PutEntry writes a single 8-byte little-endian page-table entry word
// into the page at tableAddr, creating the page first if needed. It
// is the building block the tests use to hand-assemble PML4/PDPT/PD/PT
// tables without constructing a full 4096-byte array inline.
func (m *MemSource) PutEntry(tableAddr uint64, index int, word uint64) {
	page, ok := m.pages[tableAddr]
	if !ok {
		page = make([]byte, PageSize)
		m.pages[tableAddr] = page
	}
	off := index * 8
	for i := 0; i < 8; i++ {
		page[off+i] = byte(word >> (8 * i))
	}
}
