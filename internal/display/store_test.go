package display

import (
	"sync"
	"testing"
	"time"

	"github.com/baristaclub/barista/pkg/enums/orderstatus"
)

func timeAt(hour, min int) time.Time {
	return time.Date(2026, 8, 20, hour, min, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestStoreReplaceAllAndGet(t *testing.T) {
	s := NewStore()

	s.ReplaceAll([]Order{
		{ID: "a", Status: orderstatus.Statuses.InProgress},
		{ID: "b", Status: orderstatus.Statuses.Completed},
	})

	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}

	ord, ok := s.Get("a")
	if !ok || ord.ID != "a" {
		t.Errorf("Get(a) = %+v, %v", ord, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Get(missing) ok = true, want false")
	}

	s.ReplaceAll([]Order{{ID: "c", Status: orderstatus.Statuses.InProgress}})
	if s.Count() != 1 {
		t.Errorf("Count() after replace = %d, want 1", s.Count())
	}
	if _, ok := s.Get("a"); ok {
		t.Error("Get(a) survived ReplaceAll")
	}
}

func TestStoreClear(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]Order{{ID: "a"}, {ID: "b"}})

	s.Clear()

	if s.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", s.Count())
	}
}

// Readers must always observe a complete generation, never a mix of two.
func TestStoreReplaceAllAtomic(t *testing.T) {
	s := NewStore()

	genA := []Order{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}
	genB := []Order{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}
	s.ReplaceAll(genA)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 8)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				orders := s.All()
				if len(orders) == 0 {
					continue
				}
				gen := orders[0].ID[0]
				for _, ord := range orders {
					if ord.ID[0] != gen {
						select {
						case errs <- "observed mixed generations: " + orders[0].ID + " with " + ord.ID:
						default:
						}
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			s.ReplaceAll(genB)
		} else {
			s.ReplaceAll(genA)
		}
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}

func TestStoreSetCompleted(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]Order{
		{ID: "a", Status: orderstatus.Statuses.InProgress},
	})

	at := timeAt(14, 0)
	if !s.SetCompleted("a", at) {
		t.Fatal("SetCompleted(a) = false, want true")
	}

	ord, _ := s.Get("a")
	if !ord.Status.Completed() {
		t.Errorf("Status = %q, want completed", ord.Status.Code())
	}
	if ord.CompletedAt == nil || !ord.CompletedAt.Equal(at) {
		t.Errorf("CompletedAt = %v, want %v", ord.CompletedAt, at)
	}

	if s.SetCompleted("missing", at) {
		t.Error("SetCompleted(missing) = true, want false")
	}
}

func TestStoreSnapshotRestore(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]Order{{ID: "a", Status: orderstatus.Statuses.InProgress}})

	snapshot := s.Snapshot()
	s.SetCompleted("a", timeAt(14, 0))
	s.Restore(snapshot)

	ord, _ := s.Get("a")
	if ord.Status.Completed() {
		t.Errorf("Status after Restore = %q, want inprogress", ord.Status.Code())
	}
	if ord.CompletedAt != nil {
		t.Errorf("CompletedAt after Restore = %v, want nil", ord.CompletedAt)
	}
}

func TestStoreByTabSorting(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]Order{
		{ID: "p3", Status: orderstatus.Statuses.InProgress, Timestamp: timeAt(12, 0)},
		{ID: "p1", Status: orderstatus.Statuses.InProgress, Timestamp: timeAt(9, 0)},
		{ID: "p2", Status: orderstatus.Statuses.InProgress, Timestamp: timeAt(10, 30)},
		{ID: "c1", Status: orderstatus.Statuses.Completed, Timestamp: timeAt(8, 0), CompletedAt: timePtr(timeAt(11, 0))},
		{ID: "c3", Status: orderstatus.Statuses.Completed, Timestamp: timeAt(8, 30), CompletedAt: timePtr(timeAt(13, 0))},
		{ID: "c2", Status: orderstatus.Statuses.Completed, Timestamp: timeAt(9, 0), CompletedAt: timePtr(timeAt(12, 0))},
	})

	tests := []struct {
		name    string
		tab     Tab
		wantIDs []string
	}{
		{
			name:    "inProgressOldestFirst",
			tab:     TabInProgress,
			wantIDs: []string{"p1", "p2", "p3"},
		},
		{
			name:    "completedMostRecentFirst",
			tab:     TabCompleted,
			wantIDs: []string{"c3", "c2", "c1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ByTab(tt.tab)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("ByTab(%s) count = %d, want %d", tt.tab, len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("ByTab(%s)[%d] = %q, want %q", tt.tab, i, got[i].ID, want)
				}
			}
		})
	}
}

func TestStoreByTabStagedStatusesAreInProgress(t *testing.T) {
	s := NewStore()
	s.ReplaceAll([]Order{
		{ID: "n", Status: orderstatus.Statuses.New, Timestamp: timeAt(9, 0)},
		{ID: "p", Status: orderstatus.Statuses.Preparing, Timestamp: timeAt(9, 10)},
		{ID: "r", Status: orderstatus.Statuses.Ready, Timestamp: timeAt(9, 20)},
		{ID: "c", Status: orderstatus.Statuses.Completed, Timestamp: timeAt(9, 30), CompletedAt: timePtr(timeAt(10, 0))},
	})

	inProgress := s.ByTab(TabInProgress)
	if len(inProgress) != 3 {
		t.Errorf("ByTab(inprogress) count = %d, want 3", len(inProgress))
	}
	completed := s.ByTab(TabCompleted)
	if len(completed) != 1 {
		t.Errorf("ByTab(completed) count = %d, want 1", len(completed))
	}
}

func TestStoreStats(t *testing.T) {
	s := NewStore()

	empty := s.Stats()
	if empty.InProgress != 0 || empty.Completed != 0 || len(empty.ByStatus) != 0 {
		t.Errorf("Stats() on empty store = %+v", empty)
	}

	s.ReplaceAll([]Order{
		{ID: "a", Status: orderstatus.Statuses.New},
		{ID: "b", Status: orderstatus.Statuses.Preparing},
		{ID: "c", Status: orderstatus.Statuses.Preparing},
		{ID: "d", Status: orderstatus.Statuses.Completed},
	})

	stats := s.Stats()
	if stats.InProgress != 3 {
		t.Errorf("InProgress = %d, want 3", stats.InProgress)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	if stats.ByStatus["preparing"] != 2 {
		t.Errorf("ByStatus[preparing] = %d, want 2", stats.ByStatus["preparing"])
	}
	if stats.ByStatus["new"] != 1 {
		t.Errorf("ByStatus[new] = %d, want 1", stats.ByStatus["new"])
	}
	if stats.ByStatus["completed"] != 1 {
		t.Errorf("ByStatus[completed] = %d, want 1", stats.ByStatus["completed"])
	}
}

func TestParseTab(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Tab
		wantOK bool
	}{
		{name: "inprogress", raw: "inprogress", want: TabInProgress, wantOK: true},
		{name: "completed", raw: "completed", want: TabCompleted, wantOK: true},
		{name: "upperCase", raw: "COMPLETED", want: TabCompleted, wantOK: true},
		{name: "emptyDefaults", raw: "", want: TabInProgress, wantOK: true},
		{name: "unknown", raw: "archived", want: TabInProgress, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTab(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseTab(%q) = %q, %v, want %q, %v", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
