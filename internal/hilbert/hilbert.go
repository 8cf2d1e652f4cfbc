// Package hilbert implements the bidirectional mapping between a 1-D
// distance and 2-D coordinates on an order-N Hilbert curve.
//
// The forward direction (DistanceOf) walks coordinate bits from the
// most significant down, accumulating the distance in base-4 digits
// while folding the (x, y) pair into the orientation of the current
// quadrant; the inverse (CoordOf) walks the same digits from the
// least significant up and undoes the fold. This is the standard
// quadrant-rotation formulation (equivalent to the Hacker's Delight,
// ch. 16 derivation); the two directions are written to be exact
// inverses of one another bit-for-bit, which matters here because a
// distance written by the emitter is decoded by a separate viewer
// process.
package hilbert

// MaxOrder is the largest curve order supported: side length 2^15,
// so every coordinate fits in a uint32 and every distance in a
// uint64 with room to spare (2^30 total points at MaxOrder).
const MaxOrder = 15

// DistanceOf returns the distance d on an order-N Hilbert curve for
// the coordinate (x, y), where x, y < 2^N. Order must be in
// [0, MaxOrder]; DistanceOf does not itself validate the range, that
// is the caller's responsibility.
func DistanceOf(x, y uint32, order int) uint64 {
	n := uint32(1) << uint(order)
	var d uint64
	for s := n / 2; s > 0; s /= 2 {
		var rx, ry uint32
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += uint64(s) * uint64(s) * uint64((3*rx)^ry)
		x, y = rotateQuadrant(n, x, y, rx, ry)
	}
	return d
}

// CoordOf is the inverse of DistanceOf: it returns the coordinate
// visited at distance d on an order-N curve.
func CoordOf(d uint64, order int) (x, y uint32) {
	n := uint32(1) << uint(order)
	t := d
	for s := uint32(1); s < n; s *= 2 {
		rx := uint32(1 & (t / 2))
		ry := uint32(1 & (t ^ uint64(rx)))
		x, y = rotateQuadrant(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		t /= 4
	}
	return x, y
}

// rotateQuadrant applies the rotation/reflection that both directions
// share: when ry is 0, the quadrant is mirrored (at scale n) when rx
// is 1, and the x/y axes are always swapped.
func rotateQuadrant(n, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		x, y = y, x
	}
	return x, y
}
