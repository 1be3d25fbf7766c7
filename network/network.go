// Package network keeps the station associated with one of a short list of
// known wireless networks.
package network

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/retry"
	"github.com/gr-butler/hydrostation/utils"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
)

const MaxCredentials = 3

var (
	ErrTimeout       = errors.New("association timed out")
	ErrNoCredentials = errors.New("no wireless credentials configured")
)

type Credential struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// Link is the host's wireless interface.
type Link interface {
	Associate(ctx context.Context, c Credential) error
	Connected(ctx context.Context) bool
}

type Indicator interface {
	On()
	Off()
}

type Acquirer struct {
	link      Link
	creds     []Credential
	cursor    int
	indicator Indicator
	clock     clockwork.Clock
	policy    retry.Policy

	// Timeout bounds each association attempt before moving to the next network.
	Timeout time.Duration
	// BlinkPeriod is the on and the off time of the indicator while waiting.
	BlinkPeriod time.Duration
}

func NewAcquirer(link Link, creds []Credential, indicator Indicator, clock clockwork.Clock, policy retry.Policy) (*Acquirer, error) {
	if len(creds) == 0 {
		return nil, ErrNoCredentials
	}
	if len(creds) > MaxCredentials {
		return nil, fmt.Errorf("at most %d wireless credentials supported, got %d", MaxCredentials, len(creds))
	}
	return &Acquirer{
		link:        link,
		creds:       creds,
		indicator:   indicator,
		clock:       clock,
		policy:      policy,
		Timeout:     env.LinkTimeout,
		BlinkPeriod: env.LinkBlinkPeriod,
	}, nil
}

// Cursor is the index of the credential the next attempt will use.
func (a *Acquirer) Cursor() int {
	return a.cursor
}

func (a *Acquirer) Connected(ctx context.Context) bool {
	return a.link.Connected(ctx)
}

// Acquire blocks until the link is associated. With the default policy it
// never gives up, cycling through the credentials round robin.
func (a *Acquirer) Acquire(ctx context.Context) error {
	if !a.link.Connected(ctx) {
		metrics.Prom_linkAttempts.Inc()
		err := retry.Do(ctx, a.policy, func() error {
			return a.attempt(ctx)
		}, func(ctx context.Context, d time.Duration) error {
			return utils.Sleep(ctx, a.clock, d)
		})
		if err != nil {
			return err
		}
	}
	a.indicator.On()
	logger.Info("Connected to wireless network")
	return nil
}

func (a *Acquirer) attempt(ctx context.Context) error {
	cred := a.creds[a.cursor]
	logger.Infof("Connecting to %s", cred.SSID)
	if err := a.link.Associate(ctx, cred); err != nil {
		// keep polling, the association may still complete in the background
		logger.Warnf("Association request for %s failed [%v]", cred.SSID, err)
	}

	start := a.clock.Now()
	for !a.link.Connected(ctx) {
		a.indicator.On()
		if err := utils.Sleep(ctx, a.clock, a.BlinkPeriod); err != nil {
			return err
		}
		a.indicator.Off()
		if err := utils.Sleep(ctx, a.clock, a.BlinkPeriod); err != nil {
			return err
		}
		logger.Debug(".")

		if a.clock.Since(start) > a.Timeout {
			a.cursor = (a.cursor + 1) % len(a.creds)
			return fmt.Errorf("%w: %s", ErrTimeout, cred.SSID)
		}
	}
	return nil
}
