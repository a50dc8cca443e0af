package archive

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/metrics"
)

// ErrAlreadyWaiting is returned when a tab already has a pending wait.
var ErrAlreadyWaiting = errors.New("tab already has a pending archive wait")

type pendingEntry struct {
	id     string
	result chan models.ArchiveResult
}

type parkedResult struct {
	result models.ArchiveResult
	at     time.Time
}

// Pending is the request table of in-flight archive waits, keyed by tab.
// Each entry is resolved at most once and removed on resolution or timeout.
//
// A result offered for a tab nobody waits on yet is parked for ttl, so a
// wait registered just after the tab reached its permanent link still
// receives it.
type Pending struct {
	mu      sync.Mutex
	entries map[int]*pendingEntry
	parked  map[int]parkedResult
	ttl     time.Duration
	now     func() time.Time
}

// NewPending returns an empty table. A ttl of zero disables parking.
func NewPending(ttl time.Duration) *Pending {
	return &Pending{
		entries: make(map[int]*pendingEntry),
		parked:  make(map[int]parkedResult),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register adds a wait for tabID and returns its correlation id and the
// channel its result arrives on. A fresh parked result for the tab is
// delivered at once and the wait is resolved immediately.
func (p *Pending) Register(tabID int) (string, <-chan models.ArchiveResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if existing, ok := p.entries[tabID]; ok {
		return "", nil, fmt.Errorf("tab %d (request %s): %w", tabID, existing.id, ErrAlreadyWaiting)
	}
	e := &pendingEntry{
		id:     uuid.NewString(),
		result: make(chan models.ArchiveResult, 1),
	}

	if parked, ok := p.parked[tabID]; ok {
		delete(p.parked, tabID)
		if p.fresh(parked) {
			e.result <- parked.result
			return e.id, e.result, nil
		}
	}

	p.entries[tabID] = e
	metrics.PendingArchiveRequests.Inc()
	return e.id, e.result, nil
}

// Resolve delivers r to the wait registered for tabID. It reports false when
// nothing is waiting on that tab.
func (p *Pending) Resolve(tabID int, r models.ArchiveResult) bool {
	p.mu.Lock()
	e, ok := p.take(tabID)
	p.mu.Unlock()

	if !ok {
		return false
	}
	e.result <- r
	return true
}

// Offer is Resolve that parks r when nothing is waiting on tabID yet. It
// reports whether a wait was resolved.
func (p *Pending) Offer(tabID int, r models.ArchiveResult) bool {
	p.mu.Lock()
	e, ok := p.take(tabID)
	if !ok && p.ttl > 0 {
		p.prune()
		p.parked[tabID] = parkedResult{result: r, at: p.now()}
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	e.result <- r
	return true
}

// take removes and returns the entry for tabID. Callers hold p.mu.
func (p *Pending) take(tabID int) (*pendingEntry, bool) {
	e, ok := p.entries[tabID]
	if ok {
		delete(p.entries, tabID)
		metrics.PendingArchiveRequests.Dec()
	}
	return e, ok
}

func (p *Pending) fresh(parked parkedResult) bool {
	return p.now().Sub(parked.at) <= p.ttl
}

// prune drops stale parked results. Callers hold p.mu.
func (p *Pending) prune() {
	for tabID, parked := range p.parked {
		if !p.fresh(parked) {
			delete(p.parked, tabID)
		}
	}
}

// Remove drops the entry for tabID if it still belongs to request id.
func (p *Pending) Remove(tabID int, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.entries[tabID]; ok && e.id == id {
		delete(p.entries, tabID)
		metrics.PendingArchiveRequests.Dec()
	}
}

// Waiting reports whether tabID has a pending wait.
func (p *Pending) Waiting(tabID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[tabID]
	return ok
}

func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
