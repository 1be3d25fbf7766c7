package sensors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// In meters / second, at sea level, at 21 celsius
const speedOfSound = 344

var (
	ErrNoEcho      = errors.New("no timing signal detected")
	ErrEchoTooLong = errors.New("timing signal exceeded valid duration")
)

// HCSR04 is an ultrasonic ranging module on a trigger/echo GPIO pair.
//
// Datasheet: https://cdn.sparkfun.com/datasheets/Sensors/Proximity/HCSR04.pdf
type HCSR04 struct {
	Echo    gpio.PinIO
	Trigger gpio.PinOut
	Timeout time.Duration
}

func NewHCSR04(echo string, trigger string) (*HCSR04, error) {
	s := &HCSR04{Timeout: time.Second}
	s.Echo = gpioreg.ByName(echo)
	if s.Echo == nil {
		return nil, fmt.Errorf("no GPIO echo pin named: %s", echo)
	}
	t := gpioreg.ByName(trigger)
	if t == nil {
		return nil, fmt.Errorf("no GPIO trigger pin named: %s", trigger)
	}
	s.Trigger = t
	if err := s.Trigger.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := s.Echo.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return nil, err
	}
	return s, nil
}

// Distance takes a single measurement in centimeters.
func (s *HCSR04) Distance(ctx context.Context) (Centimeters, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// clear pending edges before the rising edge of the echo
	if err := s.Echo.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return 0, err
	}

	// a 10µs pulse on trigger starts a measurement
	if err := s.Trigger.Out(gpio.High); err != nil {
		return 0, err
	}
	time.Sleep(10 * time.Microsecond)
	if err := s.Trigger.Out(gpio.Low); err != nil {
		return 0, err
	}

	if !s.Echo.WaitForEdge(s.Timeout) {
		return 0, ErrNoEcho
	}
	start := time.Now()

	if err := s.Echo.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		return 0, err
	}
	if !s.Echo.WaitForEdge(s.Timeout) {
		return 0, ErrEchoTooLong
	}
	return TimeToCentimeters(time.Since(start)), nil
}

// TimeToCentimeters converts an echo round trip into a one way distance,
// roughly the datasheet's "divide µs by 58".
func TimeToCentimeters(timeOfFlight time.Duration) Centimeters {
	centimetersPerMicrosecond := float64(speedOfSound*100) / 1e6
	oneWay := float64(timeOfFlight.Microseconds()) / 2
	return Centimeters(oneWay * centimetersPerMicrosecond)
}
