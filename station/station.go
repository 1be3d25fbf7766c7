package station

import (
	"context"
	"time"

	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/sensors"
	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

const (
	// published instead of a reading when a sensor fails
	sentinel   = "0"
	errorToken = "Erro"
)

// Publisher is satisfied by broker.Publisher.
type Publisher interface {
	Publish(topic string, payload string)
	PublishValue(topic string, v float64)
	PublishCount(topic string, n int)
}

type Session interface {
	IsConnected() bool
}

type Connector interface {
	Connect(ctx context.Context) error
}

type TipSource interface {
	Count(ctx context.Context, window time.Duration, onTip func(total int), onProgress func(percent float64)) (int, error)
}

type EnvReader interface {
	Read() (sensors.EnvSample, error)
}

type HumidityReader interface {
	Read(ctx context.Context) (sensors.RelHumidity, sensors.TemperatureC, error)
}

type DistanceReader interface {
	Distance(ctx context.Context) (sensors.Centimeters, error)
}

// Station is one of the station personalities driven by Loop.
type Station interface {
	Topics() Topics
	// Interval between two measurement cycles, measured start to start.
	Interval() time.Duration
	// HeartbeatInterval between two idle status messages.
	HeartbeatInterval() time.Duration
	Setup(ctx context.Context) error
	Measure(ctx context.Context) error
	Idle(state *CycleState, percent float64)
}

// CycleState is the small amount of mutable state carried from tick to tick.
type CycleState struct {
	LastCycle     time.Time
	LastHeartbeat time.Time
	Heartbeat     Heartbeat
	Cycles        int
	started       bool
}

type Loop struct {
	station   Station
	session   Session
	connector Connector
	clock     clockwork.Clock

	// Pause between two ticks.
	Pause time.Duration
}

func NewLoop(station Station, session Session, connector Connector, clock clockwork.Clock, pause time.Duration) *Loop {
	return &Loop{
		station:   station,
		session:   session,
		connector: connector,
		clock:     clock,
		Pause:     pause,
	}
}

// Tick makes sure the broker is reachable then either runs a measurement
// cycle, publishes a heartbeat or does nothing. The first tick always
// measures.
func (l *Loop) Tick(ctx context.Context, cs *CycleState) error {
	if !l.session.IsConnected() {
		logger.Warn("Broker connection lost")
		if err := l.connector.Connect(ctx); err != nil {
			return err
		}
	}

	now := l.clock.Now()
	interval := l.station.Interval()
	if !cs.started || now.Sub(cs.LastCycle) > interval {
		cs.started = true
		cs.LastCycle = now
		cs.Cycles++
		logger.Debugf("Measurement cycle %d", cs.Cycles)
		return l.station.Measure(ctx)
	}

	if now.Sub(cs.LastHeartbeat) > l.station.HeartbeatInterval() {
		cs.LastHeartbeat = now
		logger.Debug(".")
		l.station.Idle(cs, float64(now.Sub(cs.LastCycle))*100/float64(interval))
	}
	return nil
}

// Run connects, runs the station setup and then ticks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.connector.Connect(ctx); err != nil {
		return err
	}
	if err := l.station.Setup(ctx); err != nil {
		return err
	}
	logger.Infof("Station %s running", l.station.Topics().Root)

	cs := &CycleState{}
	for {
		if err := l.Tick(ctx, cs); err != nil {
			return err
		}
		if err := utils.Sleep(ctx, l.clock, l.Pause); err != nil {
			return err
		}
	}
}

// publishAtmosphere publishes the BMP280 means, or "0" on all three topics
// when the sensor fails its self test.
func publishAtmosphere(p Publisher, t Topics, env EnvReader) {
	sample, err := env.Read()
	if err != nil {
		logger.Warnf("BMP280 unavailable [%v]", err)
		metrics.Prom_sensorFailures.WithLabelValues("bmp280").Inc()
		p.Publish(t.BMPTemperature, sentinel)
		p.Publish(t.BMPPressure, sentinel)
		p.Publish(t.BMPAltitude, sentinel)
		return
	}
	p.PublishValue(t.BMPTemperature, sample.Temperature.Float64())
	p.PublishValue(t.BMPPressure, sample.Pressure.Float64())
	p.PublishValue(t.BMPAltitude, sample.Altitude.Float64())
}
