package broker

import (
	"strconv"

	"github.com/gr-butler/hydrostation/metrics"
	logger "github.com/sirupsen/logrus"
)

// Recorder receives every numeric value the publisher sends.
type Recorder interface {
	Record(topic string, value float64)
}

// Publisher sends text payloads at QoS 0 and never waits for the broker.
// A failed publish is dropped; there is no retry.
type Publisher struct {
	session   Session
	recorders []Recorder
}

func NewPublisher(session Session, recorders ...Recorder) *Publisher {
	return &Publisher{session: session, recorders: recorders}
}

func (p *Publisher) AddRecorder(r Recorder) {
	p.recorders = append(p.recorders, r)
}

func (p *Publisher) Publish(topic string, payload string) {
	token := p.session.Publish(topic, 0, false, payload)
	metrics.Prom_published.Inc()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			metrics.Prom_publishFailed.Inc()
			logger.Debugf("Publish to %s dropped [%v]", topic, err)
		}
	default:
	}
	logger.Infof("%s %s", topic, payload)
}

// PublishValue sends v with two decimals and hands it to the recorders.
func (p *Publisher) PublishValue(topic string, v float64) {
	p.Publish(topic, Format(v))
	for _, r := range p.recorders {
		r.Record(topic, v)
	}
}

// PublishCount sends an integer count, such as bucket tips, without decimals.
func (p *Publisher) PublishCount(topic string, n int) {
	p.Publish(topic, strconv.Itoa(n))
	for _, r := range p.recorders {
		r.Record(topic, float64(n))
	}
}

func Format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
