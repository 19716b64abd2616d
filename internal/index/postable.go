package index

import "github.com/likeidx/likeidx/internal/bitmap"

// posTable holds one *bitmap.RoaringSet per (byte, position) cell. The
// key space here is small and dense — byte is any of 256 values,
// position is bounded by MaxPositions — so a flat per-byte row beats a
// general-purpose hash map: no hashing, no bucket chains, no CAS. Build
// is single-threaded (§9's single-writer model) and the table is never
// touched again after pkg/likeidx publishes the Index it belongs to
// (§5), so it needs no synchronization either.
type posTable struct {
	rows [256][]*bitmap.RoaringSet
}

// get returns the bitmap for (c, pos), or nil if nothing was ever added
// there.
func (t *posTable) get(c byte, pos int) *bitmap.RoaringSet {
	row := t.rows[c]
	if pos < 0 || pos >= len(row) {
		return nil
	}
	return row[pos]
}

// getOrCreate returns the bitmap for (c, pos), allocating the row for c
// and the bitmap itself on first touch.
func (t *posTable) getOrCreate(c byte, pos int) *bitmap.RoaringSet {
	row := t.rows[c]
	if row == nil {
		row = make([]*bitmap.RoaringSet, MaxPositions)
		t.rows[c] = row
	}
	if row[pos] == nil {
		row[pos] = bitmap.NewRoaringSet()
	}
	return row[pos]
}

// forEach visits every populated (c, pos) cell. Order is byte-ascending
// then position-ascending.
func (t *posTable) forEach(fn func(c byte, pos int, bm *bitmap.RoaringSet)) {
	for c := 0; c < 256; c++ {
		for pos, bm := range t.rows[c] {
			if bm == nil {
				continue
			}
			fn(byte(c), pos, bm)
		}
	}
}
