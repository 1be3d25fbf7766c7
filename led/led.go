package led

import (
	"context"
	"sync"
	"time"

	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// LED is a status indicator. A nil pin is allowed so a station without the
// LED wired up still runs; state is tracked either way.
type LED struct {
	Name    string
	lock    *sync.Mutex
	on      bool
	gpioPin gpio.PinOut
	clock   clockwork.Clock
}

func NewLED(name string, pin gpio.PinOut, clock clockwork.Clock) *LED {
	l := &LED{
		Name:    name,
		lock:    &sync.Mutex{},
		gpioPin: pin,
		clock:   clock,
	}
	l.write(gpio.Low)
	return l
}

// ByName looks the pin up in the periph registry.
func ByName(name string, GPIOPin string, clock clockwork.Clock) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", GPIOPin, name)
	p := gpioreg.ByName(GPIOPin)
	if p == nil {
		// a missing LED is not critical
		logger.Errorf("Failed to find %v pin", GPIOPin)
		return NewLED(name, nil, clock)
	}
	return NewLED(name, p, clock)
}

func (l *LED) write(level gpio.Level) {
	if l.gpioPin != nil {
		_ = l.gpioPin.Out(level)
	}
}

func (l *LED) On() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	l.write(gpio.High)
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	l.write(gpio.Low)
}

func (l *LED) Toggle() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = !l.on
	l.write(gpio.Level(l.on))
}

func (l *LED) IsOn() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}

// Blink toggles the LED every period until d has elapsed.
func (l *LED) Blink(ctx context.Context, d time.Duration, period time.Duration) error {
	if period <= 0 {
		return utils.Sleep(ctx, l.clock, d)
	}
	for elapsed := time.Duration(0); elapsed < d; elapsed += period {
		l.Toggle()
		if err := utils.Sleep(ctx, l.clock, period); err != nil {
			return err
		}
	}
	return nil
}
