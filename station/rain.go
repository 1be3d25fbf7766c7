package station

import (
	"context"
	"time"

	"github.com/gr-butler/hydrostation/calc"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/metrics"
	logger "github.com/sirupsen/logrus"
)

const (
	countingStarted = "PrintOscilações"
	countingPrefix  = "Lendo oscilacoes"
	waitingStatus   = "Esperando..."
)

type RainSettings struct {
	Interval      time.Duration `yaml:"interval"`
	Window        time.Duration `yaml:"window"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
	Tick          time.Duration `yaml:"tick"`
	BucketVolume  float64       `yaml:"bucket_volume_cm3"`
	CollectorArea float64       `yaml:"collector_area_cm2"`
}

func DefaultRainSettings() RainSettings {
	return RainSettings{
		Interval:      env.RainCycle,
		Window:        env.RainTipWindow,
		Heartbeat:     env.RainIdleStatus,
		Tick:          env.RainIdleStatus,
		BucketVolume:  env.BucketVolumeCm3,
		CollectorArea: env.CollectorAreaCm2,
	}
}

// RainGauge counts bucket tips for most of each cycle and then publishes
// rainfall, precipitation rate and the BMP280 and DHT22 readings.
type RainGauge struct {
	publisher  Publisher
	topics     Topics
	tips       TipSource
	atmosphere EnvReader
	hygrometer HumidityReader
	settings   RainSettings
}

func NewRainGauge(p Publisher, topics Topics, tips TipSource, atmosphere EnvReader, hygrometer HumidityReader, settings RainSettings) *RainGauge {
	return &RainGauge{
		publisher:  p,
		topics:     topics,
		tips:       tips,
		atmosphere: atmosphere,
		hygrometer: hygrometer,
		settings:   settings,
	}
}

func (r *RainGauge) Topics() Topics                   { return r.topics }
func (r *RainGauge) Interval() time.Duration          { return r.settings.Interval }
func (r *RainGauge) HeartbeatInterval() time.Duration { return r.settings.Heartbeat }

func (r *RainGauge) Setup(context.Context) error {
	return nil
}

func (r *RainGauge) Measure(ctx context.Context) error {
	r.publisher.Publish(r.topics.PartialTips, sentinel)
	r.publisher.Publish(r.topics.Status, countingStarted)

	var hb Heartbeat
	tips, err := r.tips.Count(ctx, r.settings.Window,
		func(total int) {
			r.publisher.PublishCount(r.topics.PartialTips, total)
		},
		func(percent float64) {
			logger.Debug(".")
			r.publisher.Publish(r.topics.Status, hb.Next(countingPrefix, percent))
		})
	if err != nil {
		return err
	}
	r.publisher.PublishCount(r.topics.Tips, tips)

	depth := calc.RainfallDepth(tips, r.settings.BucketVolume, r.settings.CollectorArea)
	r.publisher.PublishValue(r.topics.Depth, depth)
	r.publisher.PublishValue(r.topics.Rate, calc.PrecipitationRate(depth, r.settings.Window.Seconds()))

	publishAtmosphere(r.publisher, r.topics, r.atmosphere)
	return r.publishHumidity(ctx)
}

func (r *RainGauge) publishHumidity(ctx context.Context) error {
	humidity, temp, err := r.hygrometer.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("DHT22 unavailable [%v]", err)
		metrics.Prom_sensorFailures.WithLabelValues("dht22").Inc()
		r.publisher.Publish(r.topics.DHTTemperature, sentinel)
		r.publisher.Publish(r.topics.DHTHumidity, sentinel)
		return nil
	}
	r.publisher.PublishValue(r.topics.DHTTemperature, temp.Float64())
	r.publisher.PublishValue(r.topics.DHTHumidity, humidity.Float64())
	return nil
}

func (r *RainGauge) Idle(*CycleState, float64) {
	r.publisher.Publish(r.topics.Status, waitingStatus)
}
