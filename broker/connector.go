package broker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/retry"
	logger "github.com/sirupsen/logrus"
)

var ErrConnectTimeout = errors.New("broker connect timed out")

// Network is satisfied by network.Acquirer.
type Network interface {
	Connected(ctx context.Context) bool
	Acquire(ctx context.Context) error
}

type Indicator interface {
	On()
	Off()
	Blink(ctx context.Context, d time.Duration, period time.Duration) error
}

type Connector struct {
	session   Session
	network   Network
	indicator Indicator
	policy    retry.Policy

	ConnectTimeout time.Duration
	BlinkPeriod    time.Duration
}

func NewConnector(session Session, network Network, indicator Indicator, policy retry.Policy) *Connector {
	return &Connector{
		session:        session,
		network:        network,
		indicator:      indicator,
		policy:         policy,
		ConnectTimeout: 30 * time.Second,
		BlinkPeriod:    env.BrokerBlink,
	}
}

// Connect blocks until the broker session is up, re-acquiring the wireless
// link first whenever it has dropped. Between failed attempts the broker LED
// blinks for the policy interval.
func (c *Connector) Connect(ctx context.Context) error {
	c.indicator.On()
	if c.session.IsConnected() {
		return nil
	}
	err := retry.Do(ctx, c.policy, func() error {
		return c.attempt(ctx)
	}, func(ctx context.Context, d time.Duration) error {
		return c.indicator.Blink(ctx, d, c.BlinkPeriod)
	})
	if err != nil {
		return err
	}
	c.indicator.On()
	return nil
}

func (c *Connector) attempt(ctx context.Context) error {
	for !c.network.Connected(ctx) {
		c.indicator.Off()
		if err := c.network.Acquire(ctx); err != nil {
			return backoff.Permanent(err)
		}
	}

	logger.Info("Attempting MQTT connection...")
	metrics.Prom_brokerConnects.Inc()
	token := c.session.Connect()
	if !token.WaitTimeout(c.ConnectTimeout) {
		logger.Warn("Broker connect timed out, try again...")
		return ErrConnectTimeout
	}
	if err := token.Error(); err != nil {
		logger.Warnf("Broker connect failed [%v], try again...", err)
		return err
	}
	logger.Info("connected")
	return nil
}
