package hacienda

import (
	"errors"
	"sync"
	"time"
)

// BreakerState estado del circuit breaker.
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // operación normal
	BreakerOpen                         // falla rápido sin llamar a Hacienda
	BreakerHalfOpen                     // una llamada de prueba
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	}
	return "closed"
}

// ErrCircuitOpen Hacienda no respondió en las últimas llamadas; se rechaza sin intentar.
var ErrCircuitOpen = errors.New("hacienda: circuit breaker abierto")

// CircuitBreaker abre el circuito tras maxFailures fallos de red consecutivos.
// Los rechazos de Hacienda no cuentan: el servicio respondió.
type CircuitBreaker struct {
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker valores por defecto: 5 fallos, 60 s de enfriamiento.
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// Execute ejecuta fn si el circuito lo permite y registra el resultado.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}
	err := fn()
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.probing = true
		return nil
	case BreakerHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
	if err == nil {
		cb.state = BreakerClosed
		cb.failures = 0
		return
	}
	cb.failures++
	if cb.state == BreakerHalfOpen || cb.failures >= cb.maxFailures {
		cb.state = BreakerOpen
		cb.openedAt = cb.now()
	}
}

// State estado actual (para /health y logs).
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
