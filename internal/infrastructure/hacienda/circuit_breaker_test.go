package hacienda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRed = errors.New("connection refused")

func TestCircuitBreaker_CicloCompleto(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, 10*time.Second)
	cb.now = func() time.Time { return now }

	fail := func() error { return errRed }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errRed)
	assert.Equal(t, BreakerClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errRed)
	assert.Equal(t, BreakerOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	// Pasado el enfriamiento entra una llamada de prueba; si falla vuelve a abrir.
	now = now.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail), errRed)
	assert.Equal(t, BreakerOpen, cb.State())

	now = now.Add(11 * time.Second)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, BreakerClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestCircuitBreaker_UnaSolaPruebaEnSemiabierto(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }
	_ = cb.Execute(func() error { return errRed })
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(func() error { <-release; return nil })
	}()
	require.Eventually(t, func() bool { return cb.State() == BreakerHalfOpen }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, BreakerClosed, cb.State())
}

func TestCompanyLimiter_PorEmpresa(t *testing.T) {
	l := NewCompanyLimiter(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "company-1"))
	// Otra empresa tiene su propio cupo.
	require.NoError(t, l.Wait(ctx, "company-2"))
	// La misma empresa debe esperar un segundo: el contexto vence antes.
	assert.Error(t, l.Wait(ctx, "company-1"))
}

func TestCompanyLimiter_DescartaInactivos(t *testing.T) {
	l := NewCompanyLimiter(10, 1)
	require.NoError(t, l.Wait(context.Background(), "vieja"))
	l.mu.Lock()
	l.limiters["vieja"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	require.NoError(t, l.Wait(context.Background(), "nueva"))
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.limiters, "vieja")
	assert.Contains(t, l.limiters, "nueva")
}
