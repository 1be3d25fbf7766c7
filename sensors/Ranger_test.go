package sensors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestTimeToCentimeters(t *testing.T) {
	// the datasheet approximation is µs / 58
	assert.InDelta(t, 5800.0/58, TimeToCentimeters(5800*time.Microsecond).Float64(), 0.5)
	assert.InDelta(t, 17.2, TimeToCentimeters(1000*time.Microsecond).Float64(), 1e-9)
	assert.Zero(t, TimeToCentimeters(0).Float64())
}

// echoPin answers WaitForEdge from a script, each edge arriving after delay.
type echoPin struct {
	gpiotest.Pin
	mu    sync.Mutex
	edges []bool
	delay time.Duration
}

func (e *echoPin) WaitForEdge(time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.edges) == 0 {
		return false
	}
	edge := e.edges[0]
	e.edges = e.edges[1:]
	time.Sleep(e.delay)
	return edge
}

func TestDistanceNoEcho(t *testing.T) {
	echo := &gpiotest.Pin{N: "GPIO24", EdgesChan: make(chan gpio.Level)}
	trigger := &gpiotest.Pin{N: "GPIO23"}
	s := &HCSR04{Echo: echo, Trigger: trigger, Timeout: 10 * time.Millisecond}

	_, err := s.Distance(context.Background())
	require.ErrorIs(t, err, ErrNoEcho)
	assert.Equal(t, gpio.Low, trigger.Read())
}

func TestDistanceEchoTooLong(t *testing.T) {
	echo := &echoPin{Pin: gpiotest.Pin{N: "GPIO24", EdgesChan: make(chan gpio.Level)}, edges: []bool{true, false}}
	s := &HCSR04{Echo: echo, Trigger: &gpiotest.Pin{N: "GPIO23"}, Timeout: 10 * time.Millisecond}

	_, err := s.Distance(context.Background())
	require.ErrorIs(t, err, ErrEchoTooLong)
}

func TestDistanceMeasuresEcho(t *testing.T) {
	echo := &echoPin{
		Pin:   gpiotest.Pin{N: "GPIO24", EdgesChan: make(chan gpio.Level)},
		edges: []bool{true, true},
		delay: 2 * time.Millisecond,
	}
	s := &HCSR04{Echo: echo, Trigger: &gpiotest.Pin{N: "GPIO23"}, Timeout: time.Second}

	d, err := s.Distance(context.Background())
	require.NoError(t, err)
	// at least the 2ms between the edges, 34.4cm one way
	assert.GreaterOrEqual(t, d.Float64(), 34.0)
}

func TestDistanceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &HCSR04{Echo: &gpiotest.Pin{N: "GPIO24"}, Trigger: &gpiotest.Pin{N: "GPIO23"}, Timeout: time.Second}

	_, err := s.Distance(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
