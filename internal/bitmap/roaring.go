package bitmap

import (
	roaring "github.com/RoaringBitmap/roaring/v2"
)

// RoaringSet wraps the RoaringBitmap compressed container representation.
// It backs the positional (P+, P-) and character-anywhere (A) bitmaps,
// where each set is a sparse slice of the record space and roaring's
// container compression keeps memory proportional to selectivity rather
// than to the record count.
type RoaringSet struct {
	rb *roaring.Bitmap
}

// NewRoaringSet returns an empty roaring-backed set.
func NewRoaringSet() *RoaringSet {
	return &RoaringSet{rb: roaring.New()}
}

func roaringOf(s Set) *roaring.Bitmap {
	if rs, ok := s.(*RoaringSet); ok {
		return rs.rb
	}
	// Cross-backend operand: materialize into a throwaway roaring bitmap.
	rb := roaring.New()
	s.Iterate(func(id uint32) bool {
		rb.Add(id)
		return true
	})
	return rb
}

func (s *RoaringSet) Add(id uint32) { s.rb.Add(id) }

func (s *RoaringSet) Contains(id uint32) bool { return s.rb.Contains(id) }

func (s *RoaringSet) Cardinality() uint64 { return s.rb.GetCardinality() }

func (s *RoaringSet) IsEmpty() bool { return s.rb.IsEmpty() }

func (s *RoaringSet) Clone() Set { return &RoaringSet{rb: s.rb.Clone()} }

func (s *RoaringSet) And(other Set) Set {
	return &RoaringSet{rb: roaring.And(s.rb, roaringOf(other))}
}

func (s *RoaringSet) Or(other Set) Set {
	return &RoaringSet{rb: roaring.Or(s.rb, roaringOf(other))}
}

func (s *RoaringSet) AndInto(other Set) { s.rb.And(roaringOf(other)) }

func (s *RoaringSet) OrInto(other Set) { s.rb.Or(roaringOf(other)) }

func (s *RoaringSet) Iterate(fn func(id uint32) bool) {
	it := s.rb.Iterator()
	for it.HasNext() {
		if !fn(it.Next()) {
			return
		}
	}
}

func (s *RoaringSet) ToArray() []uint32 { return s.rb.ToArray() }
