package dump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

const (
	fileMagic   = "CVDF"
	fileVersion = uint16(1)
	headerSize  = 24
)

// fileHeader is the on-disk header of the reference dump format: a
// magic, a format version, the dump type, the default directory
// base, and a page count. It is followed immediately by PageCount
// little-endian physical addresses (the descriptor table) and then
// by PageCount*PageSize bytes of raw page data, in the same order.
type fileHeader struct {
	Magic              [4]byte
	Version            uint16
	DumpType           uint8
	_                  uint8
	DirectoryTableBase uint64
	PageCount          uint32
	_                  uint32
}

// File is a Source backed by the reference dump format, read from a
// byte slice that platform-specific OpenFile implementations supply
// (memory-mapped on unix, loaded whole elsewhere). PhysicalPage slices
// this one backing array rather than copying, so lookups are O(1)
// after the descriptor table is indexed once at open time.
type File struct {
	data       []byte
	header     fileHeader
	index      map[uint64]uint32
	dataOffset int64
	closeFn    func() error
}

func parseFile(data []byte, closeFn func() error) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("dump: file too small for header (%d bytes)", len(data))
	}

	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("dump: failed to read header: %v", err)
	}
	if string(hdr.Magic[:]) != fileMagic {
		return nil, fmt.Errorf("dump: bad magic %q, want %q", hdr.Magic[:], fileMagic)
	}
	if hdr.Version != fileVersion {
		return nil, fmt.Errorf("dump: unsupported format version %d", hdr.Version)
	}

	descOffset := int64(headerSize)
	descLen := int64(hdr.PageCount) * 8
	dataOffset := descOffset + descLen
	want := dataOffset + int64(hdr.PageCount)*PageSize
	if int64(len(data)) < want {
		return nil, fmt.Errorf("dump: truncated file: have %d bytes, want at least %d", len(data), want)
	}

	index := make(map[uint64]uint32, hdr.PageCount)
	for i := uint32(0); i < hdr.PageCount; i++ {
		pa := binary.LittleEndian.Uint64(data[descOffset+int64(i)*8:])
		index[pa] = i
	}

	return &File{
		data:       data,
		header:     hdr,
		index:      index,
		dataOffset: dataOffset,
		closeFn:    closeFn,
	}, nil
}

// PhysicalPage implements Source.
func (f *File) PhysicalPage(pa uint64) ([]byte, bool) {
	i, ok := f.index[pa]
	if !ok {
		return nil, false
	}
	off := f.dataOffset + int64(i)*PageSize
	return f.data[off : off+PageSize], true
}

// DirectoryTableBase implements Source.
func (f *File) DirectoryTableBase() uint64 { return f.header.DirectoryTableBase }

// DumpType implements Source.
func (f *File) DumpType() Type { return Type(f.header.DumpType) }

// Close releases the backing mapping (or is a no-op on the fallback
// backend, which already copied the file into the Go heap).
func (f *File) Close() error {
	if f.closeFn == nil {
		return nil
	}
	return f.closeFn()
}

// WriteFile serializes a set of physical pages into the reference
// dump format that OpenFile reads back. Used by tests and by
// fixture-generating command-line tools; every page must be exactly
// PageSize bytes.
func WriteFile(w io.Writer, dt Type, directoryBase uint64, pages map[uint64][]byte) error {
	addrs := make([]uint64, 0, len(pages))
	for pa, data := range pages {
		if len(data) != PageSize {
			return fmt.Errorf("dump: page at 0x%x is %d bytes, want %d", pa, len(data), PageSize)
		}
		addrs = append(addrs, pa)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	hdr := fileHeader{
		Version:            fileVersion,
		DumpType:           uint8(dt),
		DirectoryTableBase: directoryBase,
		PageCount:          uint32(len(addrs)),
	}
	copy(hdr.Magic[:], fileMagic)

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("dump: failed to write header: %v", err)
	}
	for _, pa := range addrs {
		if err := binary.Write(w, binary.LittleEndian, pa); err != nil {
			return fmt.Errorf("dump: failed to write descriptor: %v", err)
		}
	}
	for _, pa := range addrs {
		if _, err := w.Write(pages[pa]); err != nil {
			return fmt.Errorf("dump: failed to write page data: %v", err)
		}
	}
	return nil
}
