package likeidx

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/likeidx/likeidx/internal/driver"
)

type rowsScanner []driver.Row

func (s rowsScanner) Scan(fn func(driver.Row) error) error {
	for _, r := range s {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func buildDB(t *testing.T, values []string, opts ...Option) *DB {
	t.Helper()
	rows := make(rowsScanner, len(values))
	for i, v := range values {
		rows[i] = driver.Row{RecordID: uint32(i), Value: []byte(v)}
	}
	db := New(opts...)
	require.NoError(t, db.Build(rows))
	return db
}

func bruteForce(values []string, pattern string) []int {
	var out []int
	for i, v := range values {
		if Matches([]byte(v), []byte(pattern)) {
			out = append(out, i)
		}
	}
	return out
}

func fixtureValues() []string {
	return []string{
		"apple", "apricot", "banana", "bandana", "cherry", "cheddar",
		"date", "dates", "elderberry", "fig", "grape", "grapefruit",
		"honeydew", "kiwi", "lemon", "lime", "mango", "melon",
		"nectarine", "olive", "orange", "papaya", "peach", "pear",
		"plum", "quince", "raspberry", "strawberry", "tangerine",
		"ugli", "vanilla", "watermelon", "xigua", "yam", "zucchini",
		"", "a", "ab", "abc", "aabbaa", "aaaaaaaaaa", "bbbbbbbbbb",
	}
}

// TestSoundnessAgainstGroundTruth checks that for a broad sample of
// patterns, DB.Rows returns exactly the set a brute-force verifier scan
// would, for both cache-enabled and cache-disabled configurations.
func TestSoundnessAgainstGroundTruth(t *testing.T) {
	values := fixtureValues()
	patterns := []string{
		"%", "", "apple", "a%", "%a", "%an%", "_a%", "%a_",
		"___", "_____", "%e%e%", "ba%a", "%berry", "q%e",
		"__%__", "%z%", "a_c", "%%", "%%%", "b_n_n_",
	}

	for _, withCache := range []int{0, DefaultCacheCapacity} {
		db := buildDB(t, values, WithCacheCapacity(withCache))
		for _, p := range patterns {
			want := bruteForce(values, p)
			rows, err := db.Rows([]byte(p))
			require.NoError(t, err, "pattern %q", p)

			var got []int
			for _, r := range rows {
				got = append(got, int(r.ID))
			}
			sort.Ints(got)
			sort.Ints(want)
			assert.Equal(t, want, got, "pattern %q (cache=%d)", p, withCache)
		}
	}
}

// TestCountAgreesWithRows checks Count always equals len(Rows) for the
// same pattern against the same published index.
func TestCountAgreesWithRows(t *testing.T) {
	db := buildDB(t, fixtureValues())
	patterns := []string{"%", "a%", "%a%", "___", "%xyz%", "grape%"}
	for _, p := range patterns {
		count, err := db.Count([]byte(p))
		require.NoError(t, err)
		rows, err := db.Rows([]byte(p))
		require.NoError(t, err)
		assert.Equal(t, uint64(len(rows)), count, "pattern %q", p)
	}
}

// TestRowsAreDedupedAndAscending checks every call returns each id at
// most once, strictly ascending.
func TestRowsAreDedupedAndAscending(t *testing.T) {
	db := buildDB(t, fixtureValues())
	rows, err := db.Rows([]byte("%a%"))
	require.NoError(t, err)
	seen := map[RecordID]bool{}
	for i, r := range rows {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
		if i > 0 {
			assert.Less(t, rows[i-1].ID, r.ID, "ids must be strictly ascending")
		}
	}
}

// TestPercentIdempotence checks that collapsing runs of '%' never
// changes the match set.
func TestPercentIdempotence(t *testing.T) {
	values := fixtureValues()
	db := buildDB(t, values)
	pairs := [][2]string{
		{"%", "%%"}, {"%%%", "%"}, {"a%%b", "a%b"},
		{"%%a%%b%%", "%a%b%"}, {"%%%%", "%"},
	}
	for _, pair := range pairs {
		r1, err := db.Rows([]byte(pair[0]))
		require.NoError(t, err)
		r2, err := db.Rows([]byte(pair[1]))
		require.NoError(t, err)
		assert.Equal(t, idsOf(r1), idsOf(r2), "%q and %q should collapse to the same result", pair[0], pair[1])
	}
}

func idsOf(rows []Row) []RecordID {
	out := make([]RecordID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

// TestPrefixSuffixDuality checks that reversing both a pattern and every
// value swaps prefix-matching for suffix-matching.
func TestPrefixSuffixDuality(t *testing.T) {
	values := []string{"apple", "apricot", "banana", "elderberry", "grape"}
	reversed := make([]string, len(values))
	for i, v := range values {
		reversed[i] = reverseString(v)
	}

	dbFwd := buildDB(t, values)
	dbRev := buildDB(t, reversed)

	prefix := "ap%"
	suffix := "%pa"

	rowsPrefix, err := dbFwd.Rows([]byte(prefix))
	require.NoError(t, err)
	rowsSuffix, err := dbRev.Rows([]byte(suffix))
	require.NoError(t, err)

	assert.Equal(t, idsOf(rowsPrefix), idsOf(rowsSuffix))
}

func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// TestLengthNecessity checks that a pure-underscore pattern only matches
// values of exactly that length, and a trailing-%-qualified one matches
// only values of at least that length.
func TestLengthNecessity(t *testing.T) {
	values := fixtureValues()
	db := buildDB(t, values)

	rows, err := db.Rows([]byte("____"))
	require.NoError(t, err)
	for _, r := range rows {
		assert.Len(t, r.Value, 4)
	}

	rows, err = db.Rows([]byte("____%"))
	require.NoError(t, err)
	for _, r := range rows {
		assert.GreaterOrEqual(t, len(r.Value), 4)
	}
}

// TestUnderscoreCorrectness checks underscore positions require exactly
// one byte each, anchored literals included.
func TestUnderscoreCorrectness(t *testing.T) {
	values := []string{"cat", "car", "cart", "ct", "cot"}
	db := buildDB(t, values)
	rows, err := db.Rows([]byte("c_t"))
	require.NoError(t, err)
	var got []string
	for _, r := range rows {
		got = append(got, string(r.Value))
	}
	sort.Strings(got)
	assert.Equal(t, []string{"cat", "cot"}, got)
}

// TestEarlyTerminationCacheEquivalence checks repeated queries against an
// unchanged index return identical results whether or not the query
// cache is enabled, and that a rebuild correctly invalidates stale cache
// entries.
func TestEarlyTerminationCacheEquivalence(t *testing.T) {
	values := fixtureValues()
	cached := buildDB(t, values, WithCacheCapacity(DefaultCacheCapacity))
	uncached := buildDB(t, values, WithCacheCapacity(0))

	pattern := []byte("%e%")
	for i := 0; i < 3; i++ {
		r1, err := cached.Rows(pattern)
		require.NoError(t, err)
		r2, err := uncached.Rows(pattern)
		require.NoError(t, err)
		assert.Equal(t, idsOf(r1), idsOf(r2))
	}

	require.NoError(t, cached.Build(rowsScanner{{RecordID: 0, Value: []byte("zzz")}}))
	rows, err := cached.Rows([]byte("%e%"))
	require.NoError(t, err)
	assert.Empty(t, rows, "cache must be invalidated after a rebuild")
}

// TestQueryBeforeBuildErrors checks all query operations fail cleanly on
// an unbuilt DB instead of panicking.
func TestQueryBeforeBuildErrors(t *testing.T) {
	db := New()
	_, err := db.Count([]byte("%"))
	assert.Error(t, err)
	_, err = db.Rows([]byte("%"))
	assert.Error(t, err)
	_, err = db.Status()
	assert.Error(t, err)
}

// TestStatusReflectsBuild checks the status report matches the built
// index's actual shape.
func TestStatusReflectsBuild(t *testing.T) {
	values := []string{"a", "bb", "ccc"}
	db := buildDB(t, values)
	status, err := db.Status()
	require.NoError(t, err)
	assert.EqualValues(t, len(values), status.RecordCount)
	assert.Equal(t, 3, status.MaxLength)
	assert.Equal(t, Backend, status.Backend)
	assert.Greater(t, status.MemoryBytes, int64(0))
}

// TestLiteralScenarios pins a handful of hand-traced examples.
func TestLiteralScenarios(t *testing.T) {
	values := []string{"hello", "help", "hollow", "yellow", "mellow", "h"}
	db := buildDB(t, values)

	cases := []struct {
		pattern string
		want    []string
	}{
		{"hel%", []string{"hello", "help"}},
		{"%low", []string{"hollow", "yellow", "mellow"}},
		{"%ll%", []string{"hello", "hollow", "yellow", "mellow"}},
		{"h____", []string{"hello"}},
		{"h%", []string{"hello", "help", "hollow", "h"}},
	}
	for _, c := range cases {
		rows, err := db.Rows([]byte(c.pattern))
		require.NoError(t, err)
		var got []string
		for _, r := range rows {
			got = append(got, string(r.Value))
		}
		sort.Strings(got)
		sort.Strings(c.want)
		assert.Equal(t, c.want, got, "pattern %q", c.pattern)
	}
}

// TestRandomizedAgainstBruteForce fuzzes a larger synthetic population
// against the same brute-force oracle used by the pinned cases above.
func TestRandomizedAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	alphabet := "abc"
	values := make([]string, 500)
	for i := range values {
		n := 6 + rng.Intn(5)
		var sb strings.Builder
		for j := 0; j < n; j++ {
			sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		values[i] = sb.String()
	}
	db := buildDB(t, values)

	patterns := []string{
		"a%", "%a", "%a%", "a%b%c", "_a%", "%a_", "a__%", "%__a",
		"ab%ba", "%bb%", "a_b_c", "____%", "%_____",
	}
	for _, p := range patterns {
		want := bruteForce(values, p)
		rows, err := db.Rows([]byte(p))
		require.NoError(t, err)
		var got []int
		for _, r := range rows {
			got = append(got, int(r.ID))
		}
		sort.Ints(got)
		sort.Ints(want)
		assert.Equal(t, want, got, "pattern %q", p)
	}
}

// TestSelfCheckDoesNotAlterResults checks that enabling the post-build
// self-check changes no observable query result, only (per its doc
// comment) logs a warning on failure without blocking publication.
func TestSelfCheckDoesNotAlterResults(t *testing.T) {
	values := fixtureValues()
	plain := buildDB(t, values)
	checked := buildDB(t, values, WithSelfCheck(1.0))

	for _, p := range []string{"%", "a%", "%an%", "___"} {
		r1, err := plain.Rows([]byte(p))
		require.NoError(t, err)
		r2, err := checked.Rows([]byte(p))
		require.NoError(t, err)
		assert.Equal(t, idsOf(r1), idsOf(r2), "pattern %q", p)
	}
}

func TestMatchesIsTotalAndNeverErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		for i := 0; i < 20; i++ {
			Matches([]byte(fmt.Sprintf("val%d", i)), []byte("v%"))
		}
	})
}
