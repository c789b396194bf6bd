package display

import (
	"sort"
	"sync"
	"time"

	"github.com/baristaclub/barista/pkg/enums/orderstatus"
)

// Store holds the current normalized snapshot for the display session.
// Readers always observe either the previous or the next complete
// snapshot, never a mix: every mutation swaps the whole slice under the
// write lock, and every read hands out a copy.
type Store struct {
	mu     sync.RWMutex
	orders []Order
}

func NewStore() *Store {
	return &Store{}
}

// ReplaceAll swaps in a freshly normalized snapshot wholesale.
func (s *Store) ReplaceAll(orders []Order) {
	next := make([]Order, len(orders))
	copy(next, orders)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = next
}

// Clear empties the snapshot. Used when a poll fails: stale orders must
// not stay on screen next to a connection-error indicator.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = nil
}

func (s *Store) Get(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ord := range s.orders {
		if ord.ID == id {
			return ord, true
		}
	}
	return Order{}, false
}

// All returns a copy of the current snapshot.
func (s *Store) All() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Order, len(s.orders))
	copy(result, s.orders)
	return result
}

// Snapshot is All under a name that signals intent: the coordinator
// captures one before an optimistic mutation so it can roll back.
func (s *Store) Snapshot() []Order {
	return s.All()
}

// Restore puts a previously captured snapshot back.
func (s *Store) Restore(snapshot []Order) {
	s.ReplaceAll(snapshot)
}

// SetCompleted applies the optimistic completion overlay to a single
// order. It reports false when the order is no longer in the snapshot.
func (s *Store) SetCompleted(id string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID != id {
			continue
		}
		next := make([]Order, len(s.orders))
		copy(next, s.orders)
		next[i].Status = orderstatus.Statuses.Completed
		next[i].CompletedAt = &at
		s.orders = next
		return true
	}
	return false
}

// ByTab returns the orders for a tab, sorted for that tab's use: the
// in-progress queue oldest-first, the completed list most recently
// finished first.
func (s *Store) ByTab(tab Tab) []Order {
	s.mu.RLock()
	var result []Order
	for _, ord := range s.orders {
		if matchesTab(ord, tab) {
			result = append(result, ord)
		}
	}
	s.mu.RUnlock()

	if tab == TabCompleted {
		sort.SliceStable(result, func(i, j int) bool {
			return finishedAt(result[j]).Before(finishedAt(result[i]))
		})
	} else {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].Timestamp.Before(result[j].Timestamp)
		})
	}
	return result
}

func matchesTab(ord Order, tab Tab) bool {
	if tab == TabCompleted {
		return ord.Status.Completed()
	}
	return !ord.Status.Completed()
}

func finishedAt(ord Order) time.Time {
	if ord.CompletedAt != nil {
		return *ord.CompletedAt
	}
	return ord.Timestamp
}

// Stats recomputes per-status counts from the current snapshot. Derived
// on every call; nothing is tracked incrementally, so the counts cannot
// drift from the orders themselves.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{ByStatus: make(map[string]int)}
	for _, ord := range s.orders {
		stats.ByStatus[ord.Status.Code()]++
		if ord.Status.Completed() {
			stats.Completed++
		} else {
			stats.InProgress++
		}
	}
	return stats
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
