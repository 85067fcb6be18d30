package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Random Code Tests

func TestGenerateCode_Length(t *testing.T) {
	for _, n := range []int{1, 4, 8, 20} {
		code, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, code, 2*n)
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestGenerateCode_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		code, err := GenerateCode(8)
		require.NoError(t, err)

		_, dup := seen[code]
		assert.False(t, dup, "duplicate code: %s", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateCredential_Format(t *testing.T) {
	cred, err := GenerateCredential()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(cred, "TKT-"))
	assert.Len(t, cred, len("TKT-")+40)
}

func TestGenerateCredential_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 10000)

	for i := 0; i < 10000; i++ {
		cred, err := GenerateCredential()
		require.NoError(t, err)

		_, dup := seen[cred]
		assert.False(t, dup, "duplicate credential: %s", cred)
		seen[cred] = struct{}{}
	}
}

// Circuit Breaker Tests

func TestCircuitBreaker_New(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.Equal(t, "test", cb.name)
	assert.Equal(t, uint32(5), cb.maxRequests)
	assert.Equal(t, 30*time.Second, cb.timeout)
	assert.Equal(t, 0.6, cb.failureRatio)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_DoSuccess(t *testing.T) {
	cb := NewCircuitBreaker("test")

	called := false
	err := cb.Do(func() error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.Requests)
	assert.Equal(t, uint32(1), cb.counts.TotalSuccesses)
}

func TestCircuitBreaker_DoFailure(t *testing.T) {
	cb := NewCircuitBreaker("test")

	expected := errors.New("gateway down")
	err := cb.Do(func() error { return expected })

	assert.Equal(t, expected, err)
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.counts.TotalFailures)
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.minRequests = 5

	for i := 0; i < 5; i++ {
		_ = cb.Do(func() error { return errors.New("failure") })
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Do(func() error {
		t.Fatal("request must not run while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestCircuitBreaker_StaysClosedBelowRatio(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.minRequests = 10

	for i := 0; i < 8; i++ {
		_ = cb.Do(func() error { return nil })
	}
	for i := 0; i < 4; i++ {
		_ = cb.Do(func() error { return errors.New("failure") })
	}

	// 4 failures out of 12 is below the 0.6 trip ratio.
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.minRequests = 1
	cb.timeout = 10 * time.Millisecond

	_ = cb.Do(func() error { return errors.New("failure") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	err := cb.Do(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ClosedWindowStartsAtConstruction(t *testing.T) {
	cb := NewCircuitBreaker("test")

	assert.False(t, cb.expiry.IsZero())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ClosedWindowRollsOverCounts(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.minRequests = 2
	cb.interval = 10 * time.Millisecond
	cb.expiry = time.Now().Add(cb.interval)

	// Successes from an old window must not dilute the ratio later.
	for i := 0; i < 5; i++ {
		_ = cb.Do(func() error { return nil })
	}

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.counts.Requests)

	for i := 0; i < 2; i++ {
		_ = cb.Do(func() error { return errors.New("failure") })
	}
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.minRequests = 1
	cb.timeout = 10 * time.Millisecond

	_ = cb.Do(func() error { return errors.New("failure") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Do(func() error { return errors.New("still failing") })
	assert.Equal(t, StateOpen, cb.State())
}
