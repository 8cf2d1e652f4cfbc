//go:build !unix

package dump

import (
	"fmt"
	"os"
)

// OpenFile reads path fully into memory and parses it as the
// reference dump format. Unlike the unix backend this cannot map the
// file read-only, but PhysicalPage still slices a single backing
// array rather than copying per page.
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dump: failed to read %s: %v", path, err)
	}
	return parseFile(data, func() error { return nil })
}
