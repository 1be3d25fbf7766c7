package archive

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	logger "github.com/sirupsen/logrus"
)

const measurement = "reading"

// Influx hands readings to the client's batching write API.
type Influx struct {
	client  influxdb2.Client
	writer  api.WriteAPI
	station string
	now     func() time.Time
}

func OpenInflux(url string, token string, org string, bucket string, station string) *Influx {
	client := influxdb2.NewClientWithOptions(url, token, influxdb2.DefaultOptions().SetBatchSize(20))
	return NewInflux(client, client.WriteAPI(org, bucket), station)
}

func NewInflux(client influxdb2.Client, writer api.WriteAPI, station string) *Influx {
	go func() {
		for err := range writer.Errors() {
			logger.Errorf("Influx write error [%v]", err)
		}
	}()
	return &Influx{client: client, writer: writer, station: station, now: time.Now}
}

func point(station string, topic string, value float64, t time.Time) *write.Point {
	return influxdb2.NewPoint(measurement,
		map[string]string{"station": station, "topic": topic},
		map[string]interface{}{"value": value},
		t)
}

func (i *Influx) Record(topic string, value float64) {
	i.writer.WritePoint(point(i.station, topic, value, i.now()))
}

func (i *Influx) Close() error {
	i.writer.Flush()
	i.client.Close()
	return nil
}
