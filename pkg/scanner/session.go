package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/unowned-ai/nutriscan/pkg/utils"
)

var (
	// ErrCameraUnavailable covers every failure to acquire a camera. It is
	// the only scanner error after which manual entry should be offered.
	ErrCameraUnavailable = errors.New("camera unavailable, use manual entry")

	ErrNoCameraAvailable = fmt.Errorf("no camera available: %w", ErrCameraUnavailable)

	ErrSessionActive = errors.New("scan session already active")
)

type State int

const (
	StateIdle State = iota
	StateStarting
	StateScanning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateScanning:
		return "scanning"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultSettle   = 500 * time.Millisecond
)

type Config struct {
	// Interval is the pause between decode attempts.
	Interval time.Duration
	// Settle is how long the acknowledgment is left visible before the
	// session stops itself after a successful decode.
	Settle time.Duration
	Logger *slog.Logger
}

// Handlers receive session events. All are optional and are called from the
// scan goroutine. None is called once Stop has begun.
type Handlers struct {
	OnDecoded func(symbol string)
	OnAck     func(symbol string)
	OnError   func(err error)
}

// Session owns one camera stream at a time and runs the decode loop on it.
// One successful decode ends the session; the caller starts a new one to
// scan again.
type Session struct {
	provider Provider
	decoder  Decoder
	cfg      Config
	logger   *slog.Logger

	ctl   sync.Mutex // guards state and run; never held across I/O
	state State
	run   *scanRun

	// mu serialises frame reads and callback starts against Stop.
	mu sync.Mutex
}

type scanRun struct {
	cancel     context.CancelFunc
	done       chan struct{}
	stream     Stream
	stopping   bool
	inCallback bool
	teardown   sync.Once
}

func NewSession(provider Provider, decoder Decoder, cfg Config) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Settle < 0 {
		cfg.Settle = 0
	}
	return &Session{
		provider: provider,
		decoder:  decoder,
		cfg:      cfg,
		logger:   utils.Component(cfg.Logger, "scanner"),
	}
}

func (s *Session) State() State {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return s.state
}

// Start acquires a camera and begins scanning in the background. Acquisition
// failures return an error wrapping ErrCameraUnavailable and leave the
// session Idle.
func (s *Session) Start(ctx context.Context, h Handlers) error {
	s.ctl.Lock()
	if s.run != nil {
		s.ctl.Unlock()
		return ErrSessionActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &scanRun{cancel: cancel, done: make(chan struct{})}
	s.run = r
	s.state = StateStarting
	s.ctl.Unlock()

	stream, err := s.acquire(runCtx)
	if err != nil {
		cancel()
		close(r.done)
		s.ctl.Lock()
		if s.run == r {
			s.run = nil
			s.state = StateIdle
		}
		s.ctl.Unlock()
		return err
	}

	s.mu.Lock()
	if r.stopping {
		// Stop raced with acquisition.
		s.mu.Unlock()
		stream.Close()
		close(r.done)
		return context.Canceled
	}
	r.stream = stream
	s.mu.Unlock()

	s.ctl.Lock()
	if s.run == r {
		s.state = StateScanning
	}
	s.ctl.Unlock()

	go s.loop(runCtx, r, h)
	return nil
}

func (s *Session) acquire(ctx context.Context) (Stream, error) {
	devs, err := s.provider.Devices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	dev, ok := PreferredDevice(devs)
	if !ok {
		return nil, ErrNoCameraAvailable
	}

	stream, err := s.provider.Open(ctx, dev)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCameraUnavailable, dev.Label, err)
	}

	if f, ok := stream.(Focuser); ok && f.SupportsContinuousFocus() {
		if err := f.SetContinuousFocus(); err != nil {
			s.logger.Warn("continuous focus not applied", "device", dev.Label, "error", err)
		}
	}
	s.logger.Debug("camera acquired", "device", dev.Label)
	return stream, nil
}

func (s *Session) loop(ctx context.Context, r *scanRun, h Handlers) {
	defer close(r.done)
	// A cancelled parent context ends the run the same way Stop does. After
	// Stop or an explicit finish this is a no-op.
	defer s.finish(r)

	first := true
	for {
		if !first && !sleep(ctx, s.cfg.Interval) {
			return
		}
		first = false

		s.mu.Lock()
		if r.stopping {
			s.mu.Unlock()
			return
		}
		frame, err := r.stream.Frame(ctx)
		s.mu.Unlock()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, ErrStreamEnded) {
				err = fmt.Errorf("%w: %v", ErrDecodeFault, err)
			}
			s.finish(r)
			s.deliver(r, func() { callErr(h.OnError, err) })
			return
		}

		symbol, err := s.decoder.Decode(frame)
		switch {
		case errors.Is(err, ErrNotFound):
			continue
		case err != nil:
			s.finish(r)
			s.deliver(r, func() { callErr(h.OnError, err) })
			return
		}

		if !s.deliver(r, func() { callSymbol(h.OnDecoded, symbol) }) {
			return
		}
		if !s.deliver(r, func() { callSymbol(h.OnAck, symbol) }) {
			return
		}
		sleep(ctx, s.cfg.Settle)
		s.finish(r)
		return
	}
}

// deliver runs fn unless Stop has begun. It reports whether fn ran.
func (s *Session) deliver(r *scanRun, fn func()) bool {
	s.mu.Lock()
	if r.stopping {
		s.mu.Unlock()
		return false
	}
	r.inCallback = true
	s.mu.Unlock()

	fn()

	s.mu.Lock()
	r.inCallback = false
	ok := !r.stopping
	s.mu.Unlock()
	return ok
}

// finish ends a run from inside the loop. Callbacks that follow it (the
// error report) are still delivered since no Stop has begun.
func (s *Session) finish(r *scanRun) {
	s.ctl.Lock()
	if s.run == r {
		s.run = nil
		s.state = StateStopped
	}
	s.ctl.Unlock()
	s.release(r)
}

func (s *Session) release(r *scanRun) {
	r.teardown.Do(func() {
		if r.stream != nil {
			if err := r.stream.Close(); err != nil {
				s.logger.Warn("failed to release stream", "error", err)
			}
		}
		s.decoder.Reset()
	})
}

// Stop ends the current session. It is idempotent and safe to call before
// Start. Once Stop begins no frame is read and no handler is called. Stop
// may be called from inside a handler.
func (s *Session) Stop() {
	s.ctl.Lock()
	r := s.run
	s.run = nil
	if r != nil || s.state == StateScanning || s.state == StateStarting {
		s.state = StateStopped
	}
	s.ctl.Unlock()
	if r == nil {
		return
	}

	r.cancel()

	s.mu.Lock()
	r.stopping = true
	fromCallback := r.inCallback
	s.mu.Unlock()

	if !fromCallback {
		<-r.done
	}
	s.release(r)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func callSymbol(fn func(string), symbol string) {
	if fn != nil {
		fn(symbol)
	}
}

func callErr(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Done returns a channel closed when the current run's scan goroutine exits.
// With no run it returns a closed channel.
func (s *Session) Done() <-chan struct{} {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	if s.run == nil {
		return closedChan
	}
	return s.run.done
}

// ScanOnce runs one session to completion and returns the decoded symbol.
// onAck, if set, is the acknowledgment hook.
func ScanOnce(ctx context.Context, provider Provider, decoder Decoder, cfg Config, onAck func(symbol string)) (string, error) {
	type outcome struct {
		symbol string
		err    error
	}
	results := make(chan outcome, 1)

	s := NewSession(provider, decoder, cfg)
	err := s.Start(ctx, Handlers{
		OnDecoded: func(symbol string) { results <- outcome{symbol: symbol} },
		OnAck:     onAck,
		OnError:   func(err error) { results <- outcome{err: err} },
	})
	if err != nil {
		return "", err
	}
	done := s.Done()

	select {
	case res := <-results:
		<-done
		return res.symbol, res.err
	case <-ctx.Done():
		s.Stop()
		return "", ctx.Err()
	}
}
