// Package record implements the emitter (spec §4.6/§6, component C6):
// serializing a (tape, regions) pair to the line-delimited ASCII
// record format the viewer consumes, and parsing it back.
package record

import (
	"bufio"
	"fmt"
	"io"
	"math/bits"
	"strconv"
	"strings"

	"github.com/xyproto/clairvoyance/internal/protect"
	"github.com/xyproto/clairvoyance/internal/tape"
)

// Order returns floor(log2(tapeLen)) / 2, the Hilbert curve order used
// to size the canvas for a tape of the given length (spec §6). A tape
// shorter than one pixel has order 0.
func Order(tapeLen int) int {
	if tapeLen < 1 {
		return 0
	}
	return (bits.Len(uint(tapeLen)) - 1) / 2
}

// Write serializes t and regions to w in the record format: a
// "<width> <height>" header line followed by one line per tape
// position, interleaved with "0x<hex>" region-header lines at each
// region's start distance.
func Write(w io.Writer, t []protect.Protection, regions []tape.Region) error {
	order := Order(len(t))
	side := 1 << uint(order)

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", side, side); err != nil {
		return fmt.Errorf("record: writing header: %v", err)
	}

	starts := make(map[int]uint64, len(regions))
	var start uint64
	for _, r := range regions {
		starts[int(start)] = r.VirtualBase
		start = r.EndDistance
	}

	for d, p := range t {
		if va, ok := starts[d]; ok {
			if _, err := fmt.Fprintf(bw, "0x%x\n", va); err != nil {
				return fmt.Errorf("record: writing region header: %v", err)
			}
		}
		if _, err := fmt.Fprintf(bw, "%x\n", int(p)); err != nil {
			return fmt.Errorf("record: writing pixel: %v", err)
		}
	}
	return bw.Flush()
}

// Parse reads a record previously produced by Write and returns the
// tape, its region table, and the declared canvas dimensions.
func Parse(r io.Reader) (t []protect.Protection, regions []tape.Region, width, height int, err error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		return nil, nil, 0, 0, fmt.Errorf("record: missing header line")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) != 2 {
		return nil, nil, 0, 0, fmt.Errorf("record: malformed header %q", sc.Text())
	}
	width, err = strconv.Atoi(fields[0])
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("record: bad width %q: %v", fields[0], err)
	}
	height, err = strconv.Atoi(fields[1])
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("record: bad height %q: %v", fields[1], err)
	}

	var pendingVA uint64
	haveOpen := false

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "0x") {
			if haveOpen {
				regions = append(regions, tape.Region{VirtualBase: pendingVA, EndDistance: uint64(len(t))})
			}
			va, perr := strconv.ParseUint(line[2:], 16, 64)
			if perr != nil {
				return nil, nil, 0, 0, fmt.Errorf("record: bad region header %q: %v", line, perr)
			}
			pendingVA = va
			haveOpen = true
			continue
		}

		v, perr := strconv.ParseUint(line, 16, 64)
		if perr != nil {
			return nil, nil, 0, 0, fmt.Errorf("record: bad protection value %q: %v", line, perr)
		}
		t = append(t, protect.Protection(v))
	}
	if serr := sc.Err(); serr != nil {
		return nil, nil, 0, 0, fmt.Errorf("record: scanning: %v", serr)
	}
	if haveOpen {
		regions = append(regions, tape.Region{VirtualBase: pendingVA, EndDistance: uint64(len(t))})
	}

	return t, regions, width, height, nil
}
