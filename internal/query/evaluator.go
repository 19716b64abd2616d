// Package query implements pattern dispatch (§4.4) and verification
// (§4.5) over a built index.
package query

import (
	"github.com/rs/zerolog"

	"github.com/likeidx/likeidx/internal/bitmap"
	"github.com/likeidx/likeidx/internal/common"
	"github.com/likeidx/likeidx/internal/index"
	"github.com/likeidx/likeidx/internal/pattern"
)

// Source is the subset of index.Index the evaluator needs. Defined as an
// interface so tests can exercise the evaluator against a fake.
type Source interface {
	RecordCount() uint32
	MaxLen() int
	Value(id uint32) []byte
	Forward(c byte, pos int) bitmap.Set
	Reverse(c byte, j int) bitmap.Set
	CharAnywhere(c byte) bitmap.Set
	LengthExact(k int) bitmap.Set
	LengthAtLeast(k int) bitmap.Set
	All() bitmap.Set
}

// Evaluator dispatches a compiled pattern to the matching strategy and
// returns the result bitmap, or an error per §4.4/§7.
type Evaluator struct {
	idx  Source
	log  zerolog.Logger
	pool *common.BitmapPool
}

func New(idx Source, log zerolog.Logger) *Evaluator {
	return &Evaluator{idx: idx, log: log}
}

// SetPool attaches a scratch-bitmap pool so emptySet and verifyCandidates
// draw their DenseSets from recycled memory (see internal/query.Cache,
// which returns finished query results to the same pool) instead of
// allocating fresh every call. Optional; a nil pool allocates fresh, same
// as before this existed.
func (e *Evaluator) SetPool(pool *common.BitmapPool) {
	e.pool = pool
}

// Eval returns the set of matching RecordIds for pattern, or an error.
func (e *Evaluator) Eval(raw []byte) (bitmap.Set, error) {
	plan := pattern.Compile(raw)

	if plan.MinLength > index.MaxPositions {
		return nil, &index.PatternTooLongError{MinLength: plan.MinLength, Max: index.MaxPositions}
	}

	switch {
	case len(raw) == 0:
		// Empty pattern matches only the empty value — exact case with k=0.
		e.log.Debug().Str("strategy", "exact-empty").Send()
		return e.withLengthExact(e.idx.All(), 0), nil

	case len(raw) == 1 && raw[0] == '%':
		e.log.Debug().Str("strategy", "all").Send()
		return e.idx.All(), nil
	}

	if underscores, pure := plan.IsPureWildcard(); pure {
		if !plan.HasPercent() {
			e.log.Debug().Str("strategy", "pure-underscore-exact").Int("k", underscores).Send()
			return e.cloneOrEmpty(e.idx.LengthExact(underscores)), nil
		}
		e.log.Debug().Str("strategy", "pure-underscore-atleast").Int("k", underscores).Send()
		return e.cloneOrEmpty(e.idx.LengthAtLeast(underscores)), nil
	}

	if c, ok := plan.IsSingleByteContains(); ok {
		e.log.Debug().Str("strategy", "single-byte-contains").Str("char", string(c)).Send()
		return e.orEmpty(e.idx.CharAnywhere(c)), nil
	}

	if !plan.HasPercent() {
		e.log.Debug().Str("strategy", "exact").Send()
		result := e.positionalAnd(raw, 0)
		if result == nil || result.IsEmpty() {
			return e.emptySet(), nil
		}
		return e.withLengthExact(result, len(raw)), nil
	}

	if !plan.StartsWithPercent && plan.EndsWithPercent && plan.PercentCount() == 1 {
		e.log.Debug().Str("strategy", "prefix").Send()
		prefix := plan.Slices[0]
		result := e.positionalAnd(prefix, 0)
		if result == nil || result.IsEmpty() {
			return e.emptySet(), nil
		}
		return e.withLengthAtLeast(result, len(prefix)), nil
	}

	if plan.StartsWithPercent && !plan.EndsWithPercent && plan.PercentCount() == 1 {
		e.log.Debug().Str("strategy", "suffix").Send()
		suffix := plan.Slices[0]
		result := e.positionalAndReverse(suffix)
		if result == nil || result.IsEmpty() {
			return e.emptySet(), nil
		}
		return e.withLengthAtLeast(result, len(suffix)), nil
	}

	if plan.PercentCount() == 1 {
		e.log.Debug().Str("strategy", "dual-anchor").Send()
		prefix, suffix := plan.Slices[0], plan.Slices[1]

		result := e.idx.All()
		if len(prefix) > 0 {
			fwd := e.positionalAnd(prefix, 0)
			if fwd == nil || fwd.IsEmpty() {
				return e.emptySet(), nil
			}
			result = fwd
		}
		if len(suffix) > 0 {
			rev := e.positionalAndReverse(suffix)
			if rev == nil || rev.IsEmpty() {
				return e.emptySet(), nil
			}
			result = andOrSet(result, rev)
			if result.IsEmpty() {
				return e.emptySet(), nil
			}
		}
		return e.withLengthAtLeast(result, len(prefix)+len(suffix)), nil
	}

	if len(plan.Slices) == 1 && plan.StartsWithPercent && plan.EndsWithPercent && !containsUnderscore(plan.Slices[0]) {
		e.log.Debug().Str("strategy", "contains-verify").Send()
		candidates := e.charCandidates(plan.Slices)
		return e.verifyCandidates(candidates, plan)
	}

	e.log.Debug().Str("strategy", "multi-slice-verify").Int("slices", len(plan.Slices)).Send()
	candidates := e.charCandidates(plan.Slices)
	candidates = e.withLengthAtLeast(candidates, plan.MinLength)
	if candidates.IsEmpty() {
		return candidates, nil
	}
	return e.verifyCandidates(candidates, plan)
}

// Count returns the cardinality of Eval's result without materializing it.
func (e *Evaluator) Count(raw []byte) (uint64, error) {
	result, err := e.Eval(raw)
	if err != nil {
		return 0, err
	}
	return result.Cardinality(), nil
}

// positionalAnd intersects Forward(s[i], base+i) for every non-'_' byte of
// s, short-circuiting (§4.4 early termination): it returns nil when a
// required position has no records at all, and the empty running
// intersection the moment it becomes empty.
func (e *Evaluator) positionalAnd(s []byte, base int) bitmap.Set {
	var result bitmap.Set
	for i, c := range s {
		if c == '_' {
			continue
		}
		bm := e.idx.Forward(c, base+i)
		if bm == nil || bm.IsEmpty() {
			return nil
		}
		if result == nil {
			result = bm.Clone()
		} else {
			result.AndInto(bm)
			if result.IsEmpty() {
				return result
			}
		}
	}
	if result == nil {
		// s was all '_': no positional constraint, caller applies length only.
		return e.idx.All()
	}
	return result
}

// positionalAndReverse intersects Reverse(s[len-1-i], i) for every non-'_'
// byte of s (s read back-to-front, matching §4.4's suffix strategy).
func (e *Evaluator) positionalAndReverse(s []byte) bitmap.Set {
	var result bitmap.Set
	for i := 0; i < len(s); i++ {
		c := s[len(s)-1-i]
		if c == '_' {
			continue
		}
		bm := e.idx.Reverse(c, i)
		if bm == nil || bm.IsEmpty() {
			return nil
		}
		if result == nil {
			result = bm.Clone()
		} else {
			result.AndInto(bm)
			if result.IsEmpty() {
				return result
			}
		}
	}
	if result == nil {
		return e.idx.All()
	}
	return result
}

// charCandidates intersects A[c] over the deduplicated set of unique
// non-'_' bytes appearing across all slices — a necessary-but-not-
// sufficient filter per §4.4, requiring ordered-substring verification.
func (e *Evaluator) charCandidates(slices [][]byte) bitmap.Set {
	seen := make(map[byte]bool)
	var result bitmap.Set
	for _, slice := range slices {
		for _, c := range slice {
			if c == '_' || seen[c] {
				continue
			}
			seen[c] = true
			bm := e.idx.CharAnywhere(c)
			if bm == nil || bm.IsEmpty() {
				return e.emptySet()
			}
			if result == nil {
				result = bm.Clone()
			} else {
				result.AndInto(bm)
				if result.IsEmpty() {
					return result
				}
			}
		}
	}
	if result == nil {
		// All slice bytes were '_': no character filter applies.
		return e.idx.All()
	}
	return result
}

// verifyCandidates runs the exact matcher/ordered-substring scan over
// every candidate surviving the bitmap filters, producing the exact
// result the index cannot decide on its own (§4.5).
func (e *Evaluator) verifyCandidates(candidates bitmap.Set, plan pattern.Plan) (bitmap.Set, error) {
	result := e.newDenseSet()
	candidates.Iterate(func(id uint32) bool {
		if MatchesOrderedSlices(e.idx.Value(id), plan.Slices, plan.StartsWithPercent, plan.EndsWithPercent) {
			result.Add(id)
		}
		return true
	})
	return result, nil
}

func (e *Evaluator) withLengthExact(base bitmap.Set, k int) bitmap.Set {
	exact := e.idx.LengthExact(k)
	if exact == nil {
		return e.emptySet()
	}
	base.AndInto(exact)
	return base
}

func (e *Evaluator) withLengthAtLeast(base bitmap.Set, k int) bitmap.Set {
	atLeast := e.idx.LengthAtLeast(k)
	base.AndInto(atLeast)
	return base
}

// newDenseSet returns a zeroed DenseSet ranging over the full record
// space, drawn from e.pool when one is attached (see internal/query.Cache,
// which puts finished results back into the same pool) and freshly
// allocated otherwise.
func (e *Evaluator) newDenseSet() *bitmap.DenseSet {
	n := uint64(e.idx.RecordCount())
	if e.pool != nil {
		if ds, ok := e.pool.Get(n).(*bitmap.DenseSet); ok {
			return ds
		}
	}
	return bitmap.NewDenseSet(n)
}

func (e *Evaluator) emptySet() bitmap.Set { return e.newDenseSet() }

func (e *Evaluator) orEmpty(s bitmap.Set) bitmap.Set {
	if s == nil {
		return e.emptySet()
	}
	return s
}

// cloneOrEmpty is orEmpty for dispatch branches that otherwise hand back
// the index's own persisted set (LengthExact/LengthAtLeast) as the final
// result: those sets must never leave the evaluator uncloned, since the
// query cache may recycle a returned *bitmap.DenseSet into its scratch
// pool once it's done with it (see internal/query.Cache.reclaim).
func (e *Evaluator) cloneOrEmpty(s bitmap.Set) bitmap.Set {
	if s == nil {
		return e.emptySet()
	}
	return s.Clone()
}

func andOrSet(a, b bitmap.Set) bitmap.Set {
	a.AndInto(b)
	return a
}

func containsUnderscore(s []byte) bool {
	for _, c := range s {
		if c == '_' {
			return true
		}
	}
	return false
}
