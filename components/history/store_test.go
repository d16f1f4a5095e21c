package history

import (
	"testing"
	"time"
)

// seriesFrom builds an ascending daily series starting at start. Values are
// position-based so tests can assert on alignment.
func seriesFrom(start time.Time, days int) []DailyRecord {
	records := make([]DailyRecord, days)
	for i := 0; i < days; i++ {
		records[i] = DailyRecord{
			Date:            start.AddDate(0, 0, i),
			WaitTimeMinutes: float64(10 + i),
			SalesTotal:      float64(1000 + i*10),
			OrderCount:      100 + i,
		}
	}
	return records
}

func TestSeriesStoreIndexOf(t *testing.T) {
	store := NewSeriesStore()
	start := date(2025, 1, 1)
	store.Replace(seriesFrom(start, 10), 1)

	if got := store.IndexOf(date(2025, 1, 4)); got != 3 {
		t.Fatalf("exact match: got %d, want 3", got)
	}
	// a missing day resolves to the closest earlier date
	store.Replace(append(seriesFrom(start, 5), seriesFrom(start.AddDate(0, 0, 7), 3)...), 2)
	if got := store.IndexOf(date(2025, 1, 6)); got != 4 {
		t.Fatalf("closest earlier: got %d, want 4", got)
	}
	if got := store.IndexOf(date(2024, 12, 25)); got != -1 {
		t.Fatalf("before series: got %d, want -1", got)
	}
	if got := store.IndexOf(date(2025, 2, 1)); got != 7 {
		t.Fatalf("after series: got %d, want last index 7", got)
	}
}

func TestSeriesStoreGet(t *testing.T) {
	store := NewSeriesStore()
	store.Replace(seriesFrom(date(2025, 1, 1), 3), 1)

	rec, ok := store.Get(date(2025, 1, 2))
	if !ok || rec.OrderCount != 101 {
		t.Fatalf("expected record for Jan 2, got %#v ok=%v", rec, ok)
	}
	if _, ok := store.Get(date(2025, 1, 9)); ok {
		t.Fatalf("expected miss for a day outside the series")
	}
}

func TestSeriesStoreDiscardsStaleGeneration(t *testing.T) {
	store := NewSeriesStore()
	fresh := seriesFrom(date(2025, 2, 1), 5)
	stale := seriesFrom(date(2025, 1, 1), 5)

	if !store.Replace(fresh, 2) {
		t.Fatalf("expected generation 2 write to be accepted")
	}
	if store.Replace(stale, 1) {
		t.Fatalf("expected stale generation 1 write to be discarded")
	}
	if got := store.Snapshot()[0].Date; !got.Equal(date(2025, 2, 1)) {
		t.Fatalf("stale write overwrote the series: first date %v", got)
	}
	if store.Generation() != 2 {
		t.Fatalf("expected generation 2, got %d", store.Generation())
	}
}

func TestSeriesStoreSortsOnReplace(t *testing.T) {
	store := NewSeriesStore()
	records := seriesFrom(date(2025, 1, 1), 4)
	records[0], records[3] = records[3], records[0]
	store.Replace(records, 1)

	snapshot := store.Snapshot()
	for i := 1; i < len(snapshot); i++ {
		if snapshot[i].Date.Before(snapshot[i-1].Date) {
			t.Fatalf("series not ascending at %d: %#v", i, snapshot)
		}
	}
}
