package products

import (
	"context"
	"sync"
)

// Tracker hands out generation tokens so that only the most recently started
// operation may publish its result. Closing the tracker invalidates every
// token, which is what a UI does on teardown.
type Tracker struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
}

// Ticket identifies one started operation.
type Ticket struct {
	t   *Tracker
	gen uint64
}

// Begin supersedes any earlier ticket.
func (t *Tracker) Begin() Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	return Ticket{t: t, gen: t.gen}
}

// Close invalidates all tickets, present and future.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.gen++
}

// Current reports whether the ticket is still the live one.
func (tk Ticket) Current() bool {
	if tk.t == nil {
		return false
	}
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	return tk.current()
}

func (tk Ticket) current() bool {
	return !tk.t.closed && tk.t.gen == tk.gen
}

// Deliver runs fn only if the ticket is current. The check and fn run under
// the tracker lock, so no Begin or Close can interleave with fn.
func (tk Ticket) Deliver(fn func()) bool {
	if tk.t == nil {
		return false
	}
	tk.t.mu.Lock()
	defer tk.t.mu.Unlock()
	if !tk.current() {
		return false
	}
	fn()
	return true
}

// Resolving is satisfied by *Resolver.
type Resolving interface {
	Resolve(ctx context.Context, barcode string) (ProductRecord, error)
}

// LookupState is the view of the current lookup.
type LookupState struct {
	Barcode string
	Loading bool
	Product ProductRecord
	Err     error
}

// Lookups runs resolutions for one UI session. Starting a new lookup cancels
// the previous one and guarantees its result is never published.
type Lookups struct {
	resolver Resolving
	tracker  Tracker
	onChange func(LookupState)

	// startMu orders Start and Close so the newest ticket always owns the
	// live context. It is taken before the tracker lock, mu after it.
	startMu sync.Mutex

	mu     sync.Mutex
	state  LookupState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLookups creates a lookup session. onChange, if not nil, is called with
// every published state, from the goroutine that produced it. onChange must
// not call back into the Lookups.
func NewLookups(r Resolving, onChange func(LookupState)) *Lookups {
	return &Lookups{resolver: r, onChange: onChange}
}

// Start begins resolving barcode in the background.
func (l *Lookups) Start(ctx context.Context, barcode string) {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	ticket := l.tracker.Begin()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	l.publish(ticket, LookupState{Barcode: barcode, Loading: true})

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer cancel()
		rec, err := l.resolver.Resolve(runCtx, barcode)
		l.publish(ticket, LookupState{Barcode: barcode, Product: rec, Err: err})
	}()
}

func (l *Lookups) publish(ticket Ticket, s LookupState) {
	ticket.Deliver(func() {
		l.mu.Lock()
		l.state = s
		l.mu.Unlock()
		if l.onChange != nil {
			l.onChange(s)
		}
	})
}

// State returns the last published state.
func (l *Lookups) State() LookupState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Wait blocks until every started lookup goroutine has returned.
func (l *Lookups) Wait() {
	l.wg.Wait()
}

// Close cancels the running lookup and suppresses any later result.
func (l *Lookups) Close() {
	l.startMu.Lock()
	defer l.startMu.Unlock()
	l.tracker.Close()
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
}
