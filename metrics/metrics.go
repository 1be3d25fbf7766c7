package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Prom_reading = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "station_reading",
		Help: "Last numeric value published on each topic",
	},
	[]string{"topic"},
)

var Prom_published = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "station_published_total",
		Help: "Messages handed to the broker client",
	},
)

var Prom_publishFailed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "station_publish_failed_total",
		Help: "Publishes the broker client reported as failed",
	},
)

var Prom_linkAttempts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "station_link_acquire_total",
		Help: "Times the wireless link had to be re-acquired",
	},
)

var Prom_brokerConnects = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "station_broker_connect_total",
		Help: "Broker connection attempts",
	},
)

var Prom_tips = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "rain_bucket_tips_total",
		Help: "Tipping bucket oscillations counted",
	},
)

var Prom_sensorFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "station_sensor_failures_total",
		Help: "Readings replaced by a sentinel value",
	},
	[]string{"sensor"},
)

func init() {
	prometheus.MustRegister(
		Prom_reading,
		Prom_published,
		Prom_publishFailed,
		Prom_linkAttempts,
		Prom_brokerConnects,
		Prom_tips,
		Prom_sensorFailures)
}

// Readings records published values as gauges.
type Readings struct{}

func (Readings) Record(topic string, value float64) {
	Prom_reading.WithLabelValues(topic).Set(value)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
