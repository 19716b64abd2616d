// Package likeidx is the public entry point: Build an index over a
// driver.Scanner-backed column, then Count or Rows against LIKE patterns.
// This mirrors the teacher's pkg/stoolap.go role of the thin handle the
// host embeds, trimmed to this core's five operations (§6).
package likeidx

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/likeidx/likeidx/internal/bitmap"
	"github.com/likeidx/likeidx/internal/common"
	"github.com/likeidx/likeidx/internal/driver"
	"github.com/likeidx/likeidx/internal/index"
	"github.com/likeidx/likeidx/internal/query"
)

// RecordID identifies a row within the indexed column, stable for the
// index's lifetime (§3).
type RecordID = uint32

// Row is a matched (RecordID, Value) pair as returned by Rows.
type Row struct {
	ID    RecordID
	Value []byte
}

// StatusReport summarizes a built index (§4.6).
type StatusReport struct {
	RecordCount uint64
	MaxLength   int
	MemoryBytes int64
	Backend     string
}

// MarshalZerologObject lets hosts already logging via zerolog attach a
// status snapshot to their own log line without re-deriving field names.
func (s StatusReport) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("record_count", s.RecordCount).
		Int("max_length", s.MaxLength).
		Int64("memory_bytes", s.MemoryBytes).
		Str("backend", s.Backend)
}

// Backend identifies the bitmap representation family this build uses.
const Backend = "roaring+dense"

// DefaultCacheCapacity is the default LRU capacity for the optional
// query cache (§9). Pass WithCacheCapacity(0) to New to disable caching
// entirely.
const DefaultCacheCapacity = 256

// DB is the host-facing handle: one process-wide (or per-session,
// depending on host policy — §9) owner of a single published Index.
// Build replaces the published index atomically; concurrent readers
// never observe a partially built index.
type DB struct {
	idx   atomic.Pointer[index.Index]
	cache *query.Cache
	pool  *common.BitmapPool
	log   zerolog.Logger

	selfCheckFraction float64
}

// Option configures a DB at construction time.
type Option func(*DB)

// WithLogger overrides the default stderr zerolog logger.
func WithLogger(log zerolog.Logger) Option {
	return func(db *DB) { db.log = log }
}

// WithCacheCapacity overrides DefaultCacheCapacity. 0 disables the cache.
func WithCacheCapacity(n int) Option {
	return func(db *DB) { db.cache = query.NewCache(n) }
}

// WithSelfCheck enables a post-build sanity pass: a fraction (0,1] of
// records are, concurrently, looked up by their own exact value as a
// literal pattern and checked for membership in the resulting set. It
// exists to catch indexing bugs during development, not to gate
// production builds — a failed self-check is logged as a warning and the
// build is published regardless. Fraction <= 0 disables it (default).
func WithSelfCheck(fraction float64) Option {
	return func(db *DB) { db.selfCheckFraction = fraction }
}

// New returns an unbuilt DB. Queries against it fail with
// ErrIndexNotBuilt until Build succeeds.
func New(opts ...Option) *DB {
	db := &DB{
		cache: query.NewCache(DefaultCacheCapacity),
		log:   zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.pool = common.NewBitmapPool(func(size uint64) common.DenseSet {
		return bitmap.NewDenseSet(size)
	})
	db.cache.SetPool(db.pool)
	return db
}

// Build scans drv and publishes a new index, replacing any prior one.
// On failure the prior index (if any) remains published (§4.2, §7).
func (db *DB) Build(drv driver.Scanner) error {
	idx, err := index.Build(drv, db.log)
	if err != nil {
		return err
	}
	if db.selfCheckFraction > 0 {
		if err := db.selfCheck(idx); err != nil {
			db.log.Warn().Err(err).Msg("likeidx: post-build self-check failed")
		}
	}
	db.idx.Store(idx)
	db.cache.Invalidate()
	return nil
}

// selfCheck samples roughly selfCheckFraction of idx's records and
// verifies each is found by evaluating its own exact value as a literal
// pattern, per WithSelfCheck.
func (db *DB) selfCheck(idx *index.Index) error {
	n := idx.RecordCount()
	if n == 0 {
		return nil
	}
	step := int(1 / db.selfCheckFraction)
	if step < 1 {
		step = 1
	}

	ev := query.New(idx, db.log)
	ev.SetPool(db.pool)
	var g errgroup.Group
	for id := uint32(0); id < n; id += uint32(step) {
		id := id
		g.Go(func() error {
			value := idx.Value(id)
			if len(value) == 0 {
				return nil
			}
			result, err := ev.Eval(value)
			if err != nil {
				return fmt.Errorf("record %d: %w", id, err)
			}
			if !result.Contains(id) {
				return fmt.Errorf("record %d (value %q) missing from its own literal match set", id, value)
			}
			return nil
		})
	}
	return g.Wait()
}

func (db *DB) snapshot() (*index.Index, error) {
	idx := db.idx.Load()
	if idx == nil {
		return nil, index.ErrIndexNotBuilt
	}
	return idx, nil
}

// Count returns the number of records matching pattern (§6).
func (db *DB) Count(pattern []byte) (uint64, error) {
	idx, err := db.snapshot()
	if err != nil {
		return 0, err
	}
	ids, err := db.evalIDs(idx, pattern)
	if err != nil {
		return 0, err
	}
	return uint64(len(ids)), nil
}

// Rows returns the matching (RecordID, Value) pairs in ascending id order
// (§6). The returned slice is a snapshot; it is not invalidated by a
// later rebuild, but the []byte values alias the index's storage at the
// time of the call.
func (db *DB) Rows(pattern []byte) ([]Row, error) {
	idx, err := db.snapshot()
	if err != nil {
		return nil, err
	}
	ids, err := db.evalIDs(idx, pattern)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(ids))
	for i, id := range ids {
		rows[i] = Row{ID: id, Value: idx.Value(id)}
	}
	return rows, nil
}

func (db *DB) evalIDs(idx *index.Index, pattern []byte) ([]uint32, error) {
	ev := query.New(idx, db.log)
	ev.SetPool(db.pool)
	return db.cache.EvalCached(pattern, func() (bitmap.Set, error) {
		return ev.Eval(pattern)
	})
}

// Status returns a snapshot of the current index's statistics (§4.6).
func (db *DB) Status() (StatusReport, error) {
	idx, err := db.snapshot()
	if err != nil {
		return StatusReport{}, err
	}
	return StatusReport{
		RecordCount: uint64(idx.RecordCount()),
		MaxLength:   idx.MaxLen(),
		MemoryBytes: idx.MemoryBytes(),
		Backend:     Backend,
	}, nil
}

// Matches is the debug/testing entry to the verifier (§4.5, §6): it does
// not consult the index at all, and is total (never errors).
func Matches(value, pattern []byte) bool {
	return query.Matches(value, pattern)
}
