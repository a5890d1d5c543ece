package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// State is the position of a circuit breaker.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen sheds calls until the cooldown passes.
	StateOpen
	// StateHalfOpen lets one probe through to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned when a call is shed because the circuit is open.
var ErrOpen = eris.New("resilience: circuit open")

// Breaker sheds calls to a detector that keeps failing, so a dead
// service costs one rejected call instead of a full timeout per photo.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// BreakerOption customizes a Breaker.
type BreakerOption func(*Breaker)

// WithThreshold sets how many consecutive failures open the circuit.
func WithThreshold(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open before probing.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// withClock injects a time source for tests.
func withClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) {
		b.now = now
	}
}

// NewBreaker creates a closed Breaker for the named service.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: 3,
		cooldown:  20 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the service name the breaker guards.
func (b *Breaker) Name() string {
	return b.name
}

// Call runs fn through the breaker, returning ErrOpen without calling it
// when the circuit is open.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	_, err := CallVal(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// CallVal is Call for functions that return a value.
func CallVal[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !b.allow() {
		return zero, eris.Wrap(ErrOpen, b.name)
	}

	val, err := fn(ctx)
	b.record(err)
	return val, err
}

// State returns the breaker position, accounting for an elapsed cooldown.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) < b.cooldown {
			return false
		}
		b.state = StateHalfOpen
		return true
	default:
		return true
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.state == StateHalfOpen {
			zap.L().Info("resilience: circuit closed after probe",
				zap.String("detector", b.name),
			)
		}
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailure = b.now()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
	case StateClosed:
		if b.failures >= b.threshold {
			b.state = StateOpen
			zap.L().Warn("resilience: circuit opened",
				zap.String("detector", b.name),
				zap.Int("failures", b.failures),
			)
		}
	}
}

// BreakerSet keeps one breaker per detector.
type BreakerSet struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	opts     []BreakerOption
}

// NewBreakerSet creates a registry whose breakers share the given options.
func NewBreakerSet(opts ...BreakerOption) *BreakerSet {
	return &BreakerSet{
		breakers: make(map[string]*Breaker),
		opts:     opts,
	}
}

// Get returns the breaker for name, creating it on first use.
func (s *BreakerSet) Get(name string) *Breaker {
	s.mu.RLock()
	b, ok := s.breakers[name]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.breakers[name]; ok {
		return b
	}
	b = NewBreaker(name, s.opts...)
	s.breakers[name] = b
	return b
}

// States snapshots every breaker's position for the status endpoint.
func (s *BreakerSet) States() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make(map[string]string, len(s.breakers))
	for name, b := range s.breakers {
		states[name] = b.State().String()
	}
	return states
}
