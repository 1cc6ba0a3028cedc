package products

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestTrackerSupersedes(t *testing.T) {
	var tr Tracker
	a := tr.Begin()
	b := tr.Begin()

	if a.Current() {
		t.Errorf("Expected first ticket to be superseded")
	}
	if !b.Current() {
		t.Errorf("Expected second ticket to be current")
	}

	ran := false
	if a.Deliver(func() { ran = true }) || ran {
		t.Errorf("Stale ticket must not deliver")
	}
	if !b.Deliver(func() { ran = true }) || !ran {
		t.Errorf("Current ticket must deliver")
	}

	tr.Close()
	if b.Current() {
		t.Errorf("Close must invalidate the current ticket")
	}
	if tr.Begin().Current() {
		t.Errorf("Tickets issued after Close must not be current")
	}
	if (Ticket{}).Current() {
		t.Errorf("Zero ticket must not be current")
	}
}

// gatedResolver returns immediately except for codes with a gate, which
// block until the gate is closed and ignore cancellation, imitating a
// response that arrives late.
type gatedResolver struct {
	gates map[string]chan struct{}
}

func (g *gatedResolver) Resolve(ctx context.Context, code string) (ProductRecord, error) {
	if gate, ok := g.gates[code]; ok {
		<-gate
	}
	return ProductRecord{Code: code, Found: true, DisplayName: "product " + code}, nil
}

func TestLookupsLateResultIsIgnored(t *testing.T) {
	gateA := make(chan struct{})
	res := &gatedResolver{gates: map[string]chan struct{}{"A": gateA}}

	var mu sync.Mutex
	var published []LookupState
	l := NewLookups(res, func(s LookupState) {
		mu.Lock()
		published = append(published, s)
		mu.Unlock()
	})
	ctx := context.Background()

	l.Start(ctx, "A")
	l.Start(ctx, "B")
	close(gateA)
	l.Wait()

	state := l.State()
	if state.Barcode != "B" || state.Loading || state.Product.DisplayName != "product B" {
		t.Errorf("Expected final state for B, got %+v", state)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, s := range published {
		if s.Barcode == "A" && !s.Loading {
			t.Errorf("Late result for A was published: %+v", s)
		}
	}
}

func TestLookupsCloseSuppressesResult(t *testing.T) {
	gate := make(chan struct{})
	res := &gatedResolver{gates: map[string]chan struct{}{"A": gate}}
	l := NewLookups(res, nil)

	l.Start(context.Background(), "A")
	l.Close()
	close(gate)
	l.Wait()

	state := l.State()
	if !state.Loading || state.Product.Found {
		t.Errorf("Expected loading state to remain after Close, got %+v", state)
	}
}

// cancelAwareResolver blocks until released and fails when its context was
// cancelled in the meantime.
type cancelAwareResolver struct {
	release chan struct{}
}

func (c *cancelAwareResolver) Resolve(ctx context.Context, code string) (ProductRecord, error) {
	select {
	case <-c.release:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return ProductRecord{}, err
	}
	return ProductRecord{Code: code, Found: true}, nil
}

func TestLookupsConcurrentStartsKeepLatestAlive(t *testing.T) {
	for range 50 {
		res := &cancelAwareResolver{release: make(chan struct{})}
		l := NewLookups(res, nil)

		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.Start(context.Background(), fmt.Sprintf("code-%d", i))
			}()
		}
		wg.Wait()
		close(res.release)
		l.Wait()

		state := l.State()
		if state.Loading || state.Err != nil || state.Product.Code != state.Barcode {
			t.Fatalf("Expected the latest lookup to complete, got %+v", state)
		}
	}
}
