package sensors

import (
	"context"
	"fmt"
	"time"

	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// TipCounter counts tipping bucket oscillations by polling the hall switch.
type TipCounter struct {
	pin   gpio.PinIn
	clock clockwork.Clock

	Active   gpio.Level
	Poll     time.Duration
	Debounce time.Duration
	Progress time.Duration
}

func NewTipCounter(pin gpio.PinIn, clock clockwork.Clock) *TipCounter {
	return &TipCounter{
		pin:      pin,
		clock:    clock,
		Active:   gpio.Low,
		Poll:     env.TipPollInterval,
		Debounce: env.TipDebounce,
		Progress: env.ProgressEvery,
	}
}

func TipCounterByName(name string, clock clockwork.Clock) (*TipCounter, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find %v - rain pin", name)
	}
	logger.Infof("%s: %s", p, p.Function())
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, err
	}
	return NewTipCounter(p, clock), nil
}

// Count polls the switch for the whole window and returns the number of
// transitions to the active level. onTip gets the running total after each
// tip, onProgress the elapsed share of the window (percent) straight away and
// then every Progress interval.
func (t *TipCounter) Count(ctx context.Context, window time.Duration, onTip func(total int), onProgress func(percent float64)) (int, error) {
	start := t.clock.Now()
	var lastProgress time.Time
	reported := false
	tips := 0
	previous := t.pin.Read()

	for elapsed := t.clock.Since(start); elapsed < window; elapsed = t.clock.Since(start) {
		if !reported || t.clock.Since(lastProgress) > t.Progress {
			reported = true
			lastProgress = t.clock.Now()
			if onProgress != nil {
				onProgress(float64(elapsed) * 100 / float64(window))
			}
		}

		level := t.pin.Read()
		if level == t.Active && previous != t.Active {
			tips++
			metrics.Prom_tips.Inc()
			logger.Infof("Bucket tip. [%v] @ %v", tips, t.clock.Now().Format(time.ANSIC))
			if onTip != nil {
				onTip(tips)
			}
			if err := utils.Sleep(ctx, t.clock, t.Debounce); err != nil {
				return tips, err
			}
		}
		previous = level

		if err := utils.Sleep(ctx, t.clock, t.Poll); err != nil {
			return tips, err
		}
	}
	return tips, nil
}
