package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAllowsWithinBurst(t *testing.T) {
	l := New(3, time.Second)
	defer l.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire("host-a"))
	}
}

func TestAcquireRejectsOverBurst(t *testing.T) {
	l := New(1, time.Second)
	defer l.Close()

	require.NoError(t, l.Acquire("host-a"))

	err := l.Acquire("host-a")
	require.Error(t, err)

	var rlErr *Error
	require.ErrorAs(t, err, &rlErr)
}

func TestAcquirePerKeyIndependence(t *testing.T) {
	l := New(1, time.Second)
	defer l.Close()

	require.NoError(t, l.Acquire("host-a"))
	require.NoError(t, l.Acquire("host-b"))
}

func TestDisabledLimiterAlwaysAllows(t *testing.T) {
	l := New(0, 0)
	defer l.Close()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.Acquire("any"))
	}
}

func TestWaitRespectsCancellation(t *testing.T) {
	l := New(1, time.Hour)
	defer l.Close()

	require.NoError(t, l.Acquire("host-a"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "host-a")
	assert.Error(t, err)
}
