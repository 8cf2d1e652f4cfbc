//go:build unix

package dump

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenFile memory-maps path read-only and parses it as the reference
// dump format. The mapping backs every PhysicalPage slice returned
// for the lifetime of the File, so pages are never copied off disk.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: failed to open %s: %v", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("dump: failed to stat %s: %v", path, err)
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("dump: %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("dump: mmap %s: %v", path, err)
	}

	file, err := parseFile(data, func() error { return unix.Munmap(data) })
	if err != nil {
		_ = unix.Munmap(data)
		return nil, err
	}
	return file, nil
}
