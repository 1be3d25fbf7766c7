package station

import (
	"context"
	"fmt"
	"time"

	"github.com/gr-butler/hydrostation/calc"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/retry"
	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

const (
	drainingToken = "Esvaziando o galao."
	waitingPrefix = "Aguardando proxima leitura"
)

type DrainageSettings struct {
	Unit      int           `yaml:"unit"`
	Interval  time.Duration `yaml:"interval"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Tick      time.Duration `yaml:"tick"`
	Radius    float64       `yaml:"radius_cm"`
	Offset    float64       `yaml:"offset_cm"`

	// ReferenceHeight skips the startup calibration when set.
	ReferenceHeight float64      `yaml:"reference_height_cm"`
	Calibration     retry.Policy `yaml:"calibration"`
}

func DefaultDrainageSettings() DrainageSettings {
	return DrainageSettings{
		Unit:        1,
		Interval:    env.DrainageCycle,
		Heartbeat:   env.DrainageHeartbeat,
		Tick:        100 * time.Millisecond,
		Radius:      env.TankRadiusCm,
		Offset:      env.SensorOffsetCm,
		Calibration: retry.Bounded(5, time.Second),
	}
}

// Drainage measures the water level in a cylindrical tank below a roof
// downpipe and derives the stored volume and the inflow.
type Drainage struct {
	publisher  Publisher
	topics     Topics
	ranger     DistanceReader
	atmosphere EnvReader
	settings   DrainageSettings
	clock      clockwork.Clock
	flow       calc.FlowTracker
	reference  float64
}

func NewDrainage(p Publisher, topics Topics, ranger DistanceReader, atmosphere EnvReader, clock clockwork.Clock, settings DrainageSettings) *Drainage {
	return &Drainage{
		publisher:  p,
		topics:     topics,
		ranger:     ranger,
		atmosphere: atmosphere,
		settings:   settings,
		clock:      clock,
		flow: calc.FlowTracker{
			Radius:     settings.Radius,
			IntervalMS: float64(settings.Interval.Milliseconds()),
		},
	}
}

func (d *Drainage) Topics() Topics                   { return d.topics }
func (d *Drainage) Interval() time.Duration          { return d.settings.Interval }
func (d *Drainage) HeartbeatInterval() time.Duration { return d.settings.Heartbeat }

// Reference is the calibrated distance from the ranger to the empty tank
// floor in cm.
func (d *Drainage) Reference() float64 {
	return d.reference
}

// Setup calibrates the reference height from a first reading with the tank
// empty, unless one is configured, and publishes it with the tank radius.
func (d *Drainage) Setup(ctx context.Context) error {
	reference := d.settings.ReferenceHeight
	if reference <= 0 {
		err := retry.Do(ctx, d.settings.Calibration, func() error {
			distance, err := d.ranger.Distance(ctx)
			if err != nil {
				logger.Warnf("Calibration reading failed [%v]", err)
				return err
			}
			reference = distance.Float64() + d.settings.Offset
			return nil
		}, func(ctx context.Context, wait time.Duration) error {
			return utils.Sleep(ctx, d.clock, wait)
		})
		if err != nil {
			return fmt.Errorf("calibrating reference height: %w", err)
		}
	}
	d.reference = reference
	logger.Infof("Reference height %.2f cm", reference)

	d.publisher.PublishValue(d.topics.Reference, reference)
	d.publisher.PublishValue(d.topics.Radius, d.settings.Radius)
	return nil
}

func (d *Drainage) Measure(ctx context.Context) error {
	distance, err := d.ranger.Distance(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("HC-SR04 unavailable [%v]", err)
		metrics.Prom_sensorFailures.WithLabelValues("hcsr04").Inc()
		d.publisher.Publish(d.topics.Distance, errorToken)
		d.publisher.Publish(d.topics.Level, errorToken)
		d.publisher.Publish(d.topics.Volume, errorToken)
	} else {
		d.publishLevel(distance.Float64())
	}

	publishAtmosphere(d.publisher, d.topics, d.atmosphere)
	return nil
}

func (d *Drainage) publishLevel(distance float64) {
	d.publisher.PublishValue(d.topics.Distance, distance)

	level := calc.WaterLevel(d.reference, distance)
	d.publisher.PublishValue(d.topics.Level, level)

	if volume := calc.StoredVolume(level, d.settings.Radius); volume < 0 {
		d.publisher.Publish(d.topics.Volume, errorToken)
	} else {
		d.publisher.PublishValue(d.topics.Volume, volume)
	}

	if flow, draining := d.flow.Update(level); draining {
		d.publisher.Publish(d.topics.Flow, drainingToken)
	} else {
		d.publisher.PublishValue(d.topics.Flow, flow)
	}
}

func (d *Drainage) Idle(state *CycleState, percent float64) {
	d.publisher.Publish(d.topics.Status, state.Heartbeat.Next(waitingPrefix, percent))
}
