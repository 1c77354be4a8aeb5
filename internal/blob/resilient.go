package blob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned while the breaker refuses calls to the backend.
var ErrCircuitOpen = errors.New("blob backend circuit breaker is open")

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	// Name identifies the circuit breaker for logging/metrics.
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state.
	// Default: 1
	MaxRequests uint32

	// Timeout is the period of open state before switching to half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// ReadyToTrip determines when to trip the circuit breaker.
	// If nil, uses DefaultReadyToTrip.
	ReadyToTrip func(counts gobreaker.Counts) bool

	// OnStateChange is called when the circuit breaker state changes.
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultBreakerConfig returns the default breaker configuration.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: DefaultReadyToTrip,
	}
}

// DefaultReadyToTrip trips after 3 consecutive failures.
func DefaultReadyToTrip(counts gobreaker.Counts) bool {
	return counts.ConsecutiveFailures >= 3
}

// Health is a point-in-time view of a guarded backend.
type Health struct {
	Name          string
	State         gobreaker.State
	Counts        gobreaker.Counts
	LastFailureAt *time.Time
	LastError     string
}

// Healthy reports whether the breaker is closed.
func (h Health) Healthy() bool {
	return h.State == gobreaker.StateClosed
}

// ResilientStore guards a remote Store with a circuit breaker. It does not
// retry; a failed write surfaces to the caller immediately.
type ResilientStore struct {
	next    Store
	breaker *gobreaker.CircuitBreaker[[]byte]

	mu            sync.Mutex
	lastFailureAt *time.Time
	lastError     string
}

// NewResilientStore wraps next with a circuit breaker.
func NewResilientStore(next Store, cfg BreakerConfig) *ResilientStore {
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ReadyToTrip == nil {
		cfg.ReadyToTrip = DefaultReadyToTrip
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.ReadyToTrip,
		// A missing key is an answer, not a backend failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}

	return &ResilientStore{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (s *ResilientStore) execute(fn func() ([]byte, error)) ([]byte, error) {
	out, err := s.breaker.Execute(fn)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	if !errors.Is(err, ErrNotFound) {
		s.recordFailure(err)
	}
	return nil, err
}

func (s *ResilientStore) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastFailureAt = &now
	s.lastError = err.Error()
}

// Get reads through the breaker.
func (s *ResilientStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.execute(func() ([]byte, error) {
		return s.next.Get(ctx, key)
	})
}

// PutMany writes through the breaker.
func (s *ResilientStore) PutMany(ctx context.Context, entries map[string][]byte) error {
	_, err := s.execute(func() ([]byte, error) {
		return nil, s.next.PutMany(ctx, entries)
	})
	return err
}

// Ping checks the backend through the breaker.
func (s *ResilientStore) Ping(ctx context.Context) error {
	_, err := s.execute(func() ([]byte, error) {
		return nil, s.next.Ping(ctx)
	})
	return err
}

// Close closes the wrapped store.
func (s *ResilientStore) Close() error {
	return s.next.Close()
}

// Health returns the breaker state and the last recorded failure.
func (s *ResilientStore) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Health{
		Name:          s.breaker.Name(),
		State:         s.breaker.State(),
		Counts:        s.breaker.Counts(),
		LastFailureAt: s.lastFailureAt,
		LastError:     s.lastError,
	}
}
