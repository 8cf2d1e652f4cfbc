package hilbert

import "testing"

func TestRoundTripDistanceToCoord(t *testing.T) {
	for order := 1; order <= 8; order++ {
		total := uint64(1) << uint(2*order)
		for d := uint64(0); d < total; d++ {
			x, y := CoordOf(d, order)
			got := DistanceOf(x, y, order)
			if got != d {
				t.Fatalf("order %d: CoordOf(%d) = (%d,%d), DistanceOf(...) = %d, want %d", order, d, x, y, got, d)
			}
		}
	}
}

func TestRoundTripCoordToDistance(t *testing.T) {
	for order := 1; order <= 7; order++ {
		side := uint32(1) << uint(order)
		for x := uint32(0); x < side; x++ {
			for y := uint32(0); y < side; y++ {
				d := DistanceOf(x, y, order)
				gx, gy := CoordOf(d, order)
				if gx != x || gy != y {
					t.Fatalf("order %d: DistanceOf(%d,%d) = %d, CoordOf(...) = (%d,%d)", order, x, y, d, gx, gy)
				}
			}
		}
	}
}

func manhattan(x1, y1, x2, y2 uint32) uint32 {
	dx := int64(x1) - int64(x2)
	dy := int64(y1) - int64(y2)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return uint32(dx + dy)
}

func TestConsecutiveDistancesAreAdjacent(t *testing.T) {
	for order := 1; order <= 8; order++ {
		total := uint64(1) << uint(2*order)
		x0, y0 := CoordOf(0, order)
		for d := uint64(1); d < total; d++ {
			x1, y1 := CoordOf(d, order)
			if m := manhattan(x0, y0, x1, y1); m != 1 {
				t.Fatalf("order %d: distance %d -> %d not adjacent: (%d,%d) to (%d,%d), manhattan=%d", order, d-1, d, x0, y0, x1, y1, m)
			}
			x0, y0 = x1, y1
		}
	}
}

func TestOriginIsZero(t *testing.T) {
	x, y := CoordOf(0, 5)
	if x != 0 || y != 0 {
		t.Fatalf("CoordOf(0, 5) = (%d,%d), want (0,0)", x, y)
	}
}
