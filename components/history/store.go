package history

import (
	"sort"
	"sync"
	"time"
)

// SeriesStore holds the most recently loaded raw daily series. It backs both
// the trend view and synthesized comparisons. Writers pass the generation
// token taken when their request was issued; a write with a token older than
// the stored one is discarded, so series loads are last-write-wins by request
// issuance rather than completion.
type SeriesStore struct {
	mu         sync.RWMutex
	records    []DailyRecord
	generation uint64
}

// NewSeriesStore builds an empty store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{}
}

// Replace installs a new series and reports whether it was accepted. Records
// are sorted ascending by date before being stored.
func (s *SeriesStore) Replace(records []DailyRecord, generation uint64) bool {
	copied := make([]DailyRecord, len(records))
	copy(copied, records)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Date.Before(copied[j].Date) })

	s.mu.Lock()
	defer s.mu.Unlock()
	if generation < s.generation {
		return false
	}
	s.records = copied
	s.generation = generation
	return true
}

// Get returns the record for an exact calendar day.
func (s *SeriesStore) Get(date time.Time) (DailyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOfLocked(date)
	if idx < 0 || !Day(s.records[idx].Date).Equal(Day(date)) {
		return DailyRecord{}, false
	}
	return s.records[idx], true
}

// IndexOf returns the index of an exact match, else the closest earlier date,
// else -1 when the date precedes the whole series.
func (s *SeriesStore) IndexOf(date time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOfLocked(date)
}

func (s *SeriesStore) indexOfLocked(date time.Time) int {
	day := Day(date)
	// first index with record date > day; the answer sits just before it
	n := sort.Search(len(s.records), func(i int) bool {
		return Day(s.records[i].Date).After(day)
	})
	return n - 1
}

// At returns the record at a position in the ascending series.
func (s *SeriesStore) At(idx int) (DailyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx < 0 || idx >= len(s.records) {
		return DailyRecord{}, false
	}
	return s.records[idx], true
}

// Snapshot copies the current series.
func (s *SeriesStore) Snapshot() []DailyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DailyRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the number of stored records.
func (s *SeriesStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Generation returns the token of the series currently held.
func (s *SeriesStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
