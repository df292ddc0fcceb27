package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStepClock_StartsAtBase(t *testing.T) {
	clock := NewStepClock(base, time.Second)
	assert.Equal(t, base, clock.Current())
}

func TestStepClock_NowAdvances(t *testing.T) {
	clock := NewStepClock(base, time.Second)

	assert.Equal(t, base.Add(time.Second), clock.Now())
	assert.Equal(t, base.Add(time.Second), clock.Current())
	assert.Equal(t, base.Add(2*time.Second), clock.Now())
	assert.Equal(t, base.Add(3*time.Second), clock.Now())
	assert.Equal(t, base.Add(3*time.Second), clock.Current())
}

func TestStepClock_Reset(t *testing.T) {
	clock := NewStepClock(base, time.Minute)
	clock.Now()
	clock.Now()

	clock.Reset()
	assert.Equal(t, base, clock.Current())
	assert.Equal(t, base.Add(time.Minute), clock.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	clock := NewStepClock(base, time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 50

	var wg sync.WaitGroup
	results := make([][]time.Time, numGoroutines)
	for i := range numGoroutines {
		results[i] = make([]time.Time, callsPerGoroutine)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := range callsPerGoroutine {
				results[idx][j] = clock.Now()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[time.Time]bool)
	for _, row := range results {
		for _, ts := range row {
			require.False(t, seen[ts], "duplicate time %s", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, base.Add(numGoroutines*callsPerGoroutine*time.Millisecond), clock.Current())
}
