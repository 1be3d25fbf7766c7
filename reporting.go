package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gr-butler/hydrostation/config"
	"github.com/gr-butler/hydrostation/data"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/station"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	logger "github.com/sirupsen/logrus"
)

const Rd = 287.1
const g = 9.807 // gravity
const kelvin = 273.1

/*

https://wow.metoffice.gov.uk/support/dataformats

 All uploads must contain 4 pieces of mandatory information plus at least 1 piece of weather data.

    siteid, siteAuthenticationKey, dateutc (YYYY-mm-DD HH:mm:ss, UTC), softwaretype

KEY				Description															UNIT

baromin 		Barometric Pressure 												Inch of Mercury
dewptf 			Outdoor Dewpoint 													Fahrenheit
humidity 		Outdoor Humidity 													0-100 %
rainin 			Accumulated rainfall since the previous observation 				Inches
tempf 			Outdoor Temperature 												Fahrenheit

*/

const baseUrl = "http://wow.metoffice.gov.uk/automaticreading?"

type weatherData struct {
	SiteId       string  `url:"siteid,omitempty"`
	AuthKey      string  `url:"siteAuthenticationKey,omitempty"`
	DateString   string  `url:"dateutc,omitempty"`
	SoftwareType string  `url:"softwaretype,omitempty"`
	PressureIn   float64 `url:"baromin,omitempty"`
	Humidity     float64 `url:"humidity,omitempty"`
	TempF        float64 `url:"tempf,omitempty"`
	DewPointF    float64 `url:"dewptf,omitempty"`
	RainIn       float64 `url:"rainin"`
}

// wowReporter uploads the rain gauge readings to Met Office WOW. It is a
// publisher recorder so it can total the rain published since the last
// upload; the other values come from the snapshot.
type wowReporter struct {
	cfg      config.WOWConfig
	topics   station.Topics
	snapshot *data.Snapshot
	clock    clockwork.Clock
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	baseURL  string
	testMode bool

	lock   sync.Mutex
	rainMM float64
}

func newWowReporter(cfg config.WOWConfig, topics station.Topics, snapshot *data.Snapshot, clock clockwork.Clock, testMode bool) *wowReporter {
	return &wowReporter{
		cfg:      cfg,
		topics:   topics,
		snapshot: snapshot,
		clock:    clock,
		client:   &http.Client{Timeout: time.Second * 30},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "wow",
			Timeout: time.Hour,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warnf("Upload %s %v -> %v", name, from, to)
			},
		}),
		baseURL:  baseUrl,
		testMode: testMode,
	}
}

func (r *wowReporter) Record(topic string, value float64) {
	if topic != r.topics.Depth {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rainMM += value
}

// Run uploads every cfg.Every until ctx is done.
func (r *wowReporter) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.cfg.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := r.report(ctx); err != nil {
				logger.Errorf("Failed to send data to met office [%v]", err)
			}
		}
	}
}

func (r *wowReporter) report(ctx context.Context) error {
	wd := r.prepData()
	vals, err := query.Values(wd)
	if err != nil {
		return err
	}
	if r.testMode {
		logger.Infof("Data: [%v]", vals)
		return nil
	}
	logger.Info("Sending data to met office")

	_, err = r.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+vals.Encode(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("HTTP [%v]", resp.Status)
		}
		return nil, nil
	})
	if err != nil {
		r.restoreRain(wd.RainIn * env.MmToInch)
	}
	return err
}

func (r *wowReporter) restoreRain(mm float64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.rainMM += mm
}

// build the upload from the latest readings, taking the rain total
func (r *wowReporter) prepData() *weatherData {
	wd := weatherData{
		SiteId:  r.cfg.SiteID,
		AuthKey: r.cfg.AuthKey,
		// go magic date is Mon Jan 2 15:04:05 MST 2006
		DateString:   r.clock.Now().UTC().Format("2006-01-02 15:04:05"),
		SoftwareType: version,
	}

	r.lock.Lock()
	wd.RainIn = mmToIn(r.rainMM)
	r.rainMM = 0
	r.lock.Unlock()

	// a failed sensor leaves its last reading behind, don't report it forever
	maxAge := r.cfg.Every
	temp, haveTemp := r.snapshot.Fresh(r.topics.DHTTemperature, maxAge)
	if !haveTemp {
		temp, haveTemp = r.snapshot.Fresh(r.topics.BMPTemperature, maxAge)
	}
	humidity, haveHumidity := r.snapshot.Fresh(r.topics.DHTHumidity, maxAge)
	pressure, havePressure := r.snapshot.Fresh(r.topics.BMPPressure, maxAge)

	if haveTemp {
		wd.TempF = ctof(temp.Value)
	}
	if haveHumidity {
		wd.Humidity = humidity.Value
	}
	if haveTemp && haveHumidity {
		//Td = T - ((100 - RH)/5.)
		wd.DewPointF = ctof(temp.Value - ((100 - humidity.Value) / 5.0))
	}
	if havePressure {
		pressureInHg := pressure.Value / 100 * env.HPaToInHg
		if haveTemp {
			// scale height H = RdT/g, psl = p0 exp(z0/H)
			H := (Rd * (temp.Value + kelvin)) / g
			pressureInHg *= math.Exp(r.cfg.Elevation / H)
		}
		wd.PressureIn = pressureInHg
	}
	return &wd
}

func ctof(c float64) float64 {
	//(0°C × 9/5) + 32 = 32°F
	return ((c * 9 / 5) + 32)
}

func mmToIn(mm float64) float64 {
	return mm / env.MmToInch
}
