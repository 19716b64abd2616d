package driver

import "math/rand"

// Synthetic generates a corpus of short byte strings for load-testing and
// demos, standing in for a real column per §6. It is deterministic for a
// given seed so CLI benchmarks are reproducible.
type Synthetic struct {
	Count     int
	MinLen    int
	MaxLen    int
	Alphabet  []byte
	Seed      int64
	NullEvery int // every NullEvery-th record is NULL (empty value); 0 disables
}

// NewSynthetic returns a Synthetic generator with the spec's target shape:
// ~10^6 rows of 6-10 byte strings (§1).
func NewSynthetic(count int, seed int64) *Synthetic {
	return &Synthetic{
		Count:    count,
		MinLen:   6,
		MaxLen:   10,
		Alphabet: []byte("abcdefghijklmnopqrstuvwxyz0123456789"),
		Seed:     seed,
	}
}

func (s *Synthetic) Scan(fn func(Row) error) error {
	rng := rand.New(rand.NewSource(s.Seed))
	span := s.MaxLen - s.MinLen + 1

	for id := 0; id < s.Count; id++ {
		if s.NullEvery > 0 && id%s.NullEvery == 0 {
			if err := fn(Row{RecordID: uint32(id), Value: nil}); err != nil {
				return err
			}
			continue
		}
		length := s.MinLen
		if span > 1 {
			length += rng.Intn(span)
		}
		value := make([]byte, length)
		for i := range value {
			value[i] = s.Alphabet[rng.Intn(len(s.Alphabet))]
		}
		if err := fn(Row{RecordID: uint32(id), Value: value}); err != nil {
			return err
		}
	}
	return nil
}
