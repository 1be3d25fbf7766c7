package station

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gr-butler/hydrostation/sensors"
)

type message struct {
	topic   string
	payload string
}

type fakePublisher struct {
	sent []message
}

func (f *fakePublisher) Publish(topic string, payload string) {
	f.sent = append(f.sent, message{topic, payload})
}

func (f *fakePublisher) PublishValue(topic string, v float64) {
	f.Publish(topic, strconv.FormatFloat(v, 'f', 2, 64))
}

func (f *fakePublisher) PublishCount(topic string, n int) {
	f.Publish(topic, strconv.Itoa(n))
}

func (f *fakePublisher) payloads(topic string) []string {
	var out []string
	for _, m := range f.sent {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

type fakeTips struct {
	tips     int
	progress []float64
	err      error
	window   time.Duration
}

func (f *fakeTips) Count(_ context.Context, window time.Duration, onTip func(int), onProgress func(float64)) (int, error) {
	f.window = window
	for _, p := range f.progress {
		onProgress(p)
	}
	for i := 1; i <= f.tips; i++ {
		onTip(i)
	}
	return f.tips, f.err
}

type fakeEnv struct {
	sample sensors.EnvSample
	err    error
}

func (f *fakeEnv) Read() (sensors.EnvSample, error) {
	return f.sample, f.err
}

type fakeHygrometer struct {
	humidity sensors.RelHumidity
	temp     sensors.TemperatureC
	err      error
}

func (f *fakeHygrometer) Read(context.Context) (sensors.RelHumidity, sensors.TemperatureC, error) {
	return f.humidity, f.temp, f.err
}

type fakeRanger struct {
	readings []float64
	errs     []error
	calls    int
}

func (f *fakeRanger) Distance(context.Context) (sensors.Centimeters, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	if i >= len(f.readings) {
		return 0, errors.New("no echo")
	}
	return sensors.Centimeters(f.readings[i]), nil
}

var goodEnv = &fakeEnv{sample: sensors.EnvSample{
	Temperature: 21.5,
	Pressure:    94812.25,
	Altitude:    550,
}}
