// Package index builds and holds the positional bitmap index: the forward
// and reverse per-(byte,position) bitmaps, the character-anywhere cache,
// and the length partition, per spec §2-§4.2.
package index

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/likeidx/likeidx/internal/bitmap"
	"github.com/likeidx/likeidx/internal/driver"
)

// MaxPositions bounds how many bytes of a value are indexed positionally.
// Values longer than this are truncated for indexing purposes only: the
// forward and reverse bitmaps, and the character-anywhere cache derived
// from the forward ones, cover just the first MaxPositions bytes (the
// reverse bitmaps count back from the end of that truncated prefix). The
// full value is still stored, its full length goes into the length
// partition, and verification reads the full value.
const MaxPositions = 256

// Index is the published, read-only positional bitmap index. Once built
// it is never mutated; rebuilding constructs a new Index and swaps it in
// atomically (see pkg/likeidx).
type Index struct {
	values      [][]byte
	recordCount uint32
	maxLen      int

	forward *posTable // P+[c][pos]
	reverse *posTable // P-[c][j] (j-th from end)
	charAny [256]*bitmap.RoaringSet

	// lengthExact[k] = L[k]; lengthAtLeast[k] = union_{j>=k} L[j].
	// lengthExact is indexed 0..maxLen, nil entries meaning empty sets;
	// lengthAtLeast is indexed 0..maxLen+1, its last entry empty.
	lengthExact   []*bitmap.DenseSet
	lengthAtLeast []*bitmap.DenseSet

	memoryBytes int64
}

// Build scans the source via drv and constructs a new Index. It never
// mutates an existing published index — the caller is responsible for
// atomically installing the result (see pkg/likeidx.DB.Build).
func Build(drv driver.Scanner, log zerolog.Logger) (*Index, error) {
	start := time.Now()

	var rows []driver.Row
	if err := drv.Scan(func(r driver.Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("likeidx: driver scan failed")
		return nil, NewDriverFailedError(err)
	}

	idx := &Index{
		values:      make([][]byte, len(rows)),
		recordCount: uint32(len(rows)),
		forward:     &posTable{},
		reverse:     &posTable{},
	}

	for _, r := range rows {
		if int(r.RecordID) >= len(idx.values) {
			return nil, &DriverFailedError{Cause: fmt.Errorf("record id %d out of range [0,%d)", r.RecordID, len(rows))}
		}
		idx.values[r.RecordID] = r.Value
		if len(r.Value) > idx.maxLen {
			idx.maxLen = len(r.Value)
		}
	}

	for id, value := range idx.values {
		clamped := len(value)
		if clamped > MaxPositions {
			clamped = MaxPositions
		}
		for p := 0; p < clamped; p++ {
			idx.addForward(value[p], p, uint32(id))
			idx.addReverse(value[clamped-1-p], p, uint32(id))
		}
	}

	idx.buildCharCache()
	idx.buildLengthIndex()
	idx.memoryBytes = idx.estimateMemory()

	log.Info().
		Uint32("records", idx.recordCount).
		Int("max_len", idx.maxLen).
		Dur("elapsed", time.Since(start)).
		Int64("memory_bytes", idx.memoryBytes).
		Msg("likeidx: index built")

	return idx, nil
}

func (idx *Index) addForward(c byte, pos int, id uint32) {
	idx.forward.getOrCreate(c, pos).Add(id)
}

func (idx *Index) addReverse(c byte, j int, id uint32) {
	idx.reverse.getOrCreate(c, j).Add(id)
}

// buildCharCache derives A[c] = union_p P+[c][p] for every byte that
// appears anywhere, per spec §4.2 step 3.
func (idx *Index) buildCharCache() {
	idx.forward.forEach(func(c byte, pos int, bm *bitmap.RoaringSet) {
		if idx.charAny[c] == nil {
			idx.charAny[c] = bitmap.NewRoaringSet()
		}
		idx.charAny[c].OrInto(bm)
	})
}

// buildLengthIndex partitions [0, N) by exact value length, then derives
// the "length >= k" suffix unions bottom-up so query-time length filters
// are an O(1) array lookup instead of an O(maxLen) union per query.
func (idx *Index) buildLengthIndex() {
	idx.lengthExact = make([]*bitmap.DenseSet, idx.maxLen+1)
	for id, value := range idx.values {
		k := len(value)
		if idx.lengthExact[k] == nil {
			idx.lengthExact[k] = bitmap.NewDenseSet(uint64(idx.recordCount))
		}
		idx.lengthExact[k].Add(uint32(id))
	}

	idx.lengthAtLeast = make([]*bitmap.DenseSet, idx.maxLen+2)
	idx.lengthAtLeast[idx.maxLen+1] = bitmap.NewDenseSet(uint64(idx.recordCount))
	for k := idx.maxLen; k >= 0; k-- {
		acc := bitmap.NewDenseSet(uint64(idx.recordCount))
		if idx.lengthExact[k] != nil {
			acc.OrInto(idx.lengthExact[k])
		}
		acc.OrInto(idx.lengthAtLeast[k+1])
		idx.lengthAtLeast[k] = acc
	}
}

func (idx *Index) estimateMemory() int64 {
	var n int64
	n += int64(len(idx.values)) * 16 // slice header + len/cap amortized estimate
	for _, v := range idx.values {
		n += int64(len(v))
	}
	idx.forward.forEach(func(_ byte, _ int, bm *bitmap.RoaringSet) {
		n += int64(bm.Cardinality())*2 + 32
	})
	idx.reverse.forEach(func(_ byte, _ int, bm *bitmap.RoaringSet) {
		n += int64(bm.Cardinality())*2 + 32
	})
	for _, bm := range idx.lengthExact {
		if bm != nil {
			n += int64((idx.recordCount + 63) / 64 * 8)
		}
	}
	return n
}

// --- read-only accessors used by the query evaluator ---

func (idx *Index) RecordCount() uint32 { return idx.recordCount }
func (idx *Index) MaxLen() int         { return idx.maxLen }

func (idx *Index) Value(id uint32) []byte { return idx.values[id] }

// Forward returns P+[c][pos], or nil if no record has byte c at pos.
func (idx *Index) Forward(c byte, pos int) bitmap.Set {
	bm := idx.forward.get(c, pos)
	if bm == nil {
		return nil
	}
	return bm
}

// Reverse returns P-[c][j], or nil if no record has byte c at the j-th
// position from the end.
func (idx *Index) Reverse(c byte, j int) bitmap.Set {
	bm := idx.reverse.get(c, j)
	if bm == nil {
		return nil
	}
	return bm
}

// CharAnywhere returns A[c], or nil if byte c appears in no value.
func (idx *Index) CharAnywhere(c byte) bitmap.Set {
	if idx.charAny[c] == nil {
		return nil
	}
	return idx.charAny[c]
}

// LengthExact returns L[k], or nil if no record has that exact length.
func (idx *Index) LengthExact(k int) bitmap.Set {
	if k < 0 || k >= len(idx.lengthExact) || idx.lengthExact[k] == nil {
		return nil
	}
	return idx.lengthExact[k]
}

// LengthAtLeast returns union_{j>=k} L[j]. For k beyond maxLen this is
// empty; for k<=0 this is all records.
func (idx *Index) LengthAtLeast(k int) bitmap.Set {
	if k < 0 {
		k = 0
	}
	if k >= len(idx.lengthAtLeast) {
		return bitmap.NewDenseSet(uint64(idx.recordCount))
	}
	return idx.lengthAtLeast[k]
}

// All returns [0, N) as a fresh set.
func (idx *Index) All() bitmap.Set {
	ds := bitmap.NewDenseSet(uint64(idx.recordCount))
	ds.SetAll()
	return ds
}

// MemoryBytes returns the estimated memory footprint in bytes, used by
// the status reporter.
func (idx *Index) MemoryBytes() int64 { return idx.memoryBytes }
