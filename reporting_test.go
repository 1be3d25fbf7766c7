package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gr-butler/hydrostation/config"
	"github.com/gr-butler/hydrostation/data"
	"github.com/gr-butler/hydrostation/station"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rainTopics = station.RainTopics("ic", "pluviometro")

type wowServer struct {
	*httptest.Server
	lock   sync.Mutex
	status int
	hits   int
	last   url.Values
}

func newWowServer(t *testing.T, status int) *wowServer {
	s := &wowServer{status: status}
	s.Server = httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		defer s.lock.Unlock()
		s.hits++
		s.last = r.URL.Query()
		rw.WriteHeader(s.status)
	}))
	t.Cleanup(s.Close)
	return s
}

func testReporter(baseURL string, testMode bool) (*wowReporter, *data.Snapshot) {
	fc := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	snap := data.CreateSnapshot(fc)
	cfg := config.WOWConfig{SiteID: "1234", AuthKey: "5678", Every: 15 * time.Minute}
	r := newWowReporter(cfg, rainTopics, snap, fc, testMode)
	r.baseURL = baseURL + "?"
	return r, snap
}

func TestPrepData(t *testing.T) {
	r, snap := testReporter("http://localhost", true)
	snap.Record(rainTopics.DHTTemperature, 20)
	snap.Record(rainTopics.DHTHumidity, 60)
	snap.Record(rainTopics.BMPPressure, 101325)
	r.Record(rainTopics.Depth, 1.27)
	r.Record(rainTopics.Depth, 1.27)
	r.Record(rainTopics.Rate, 50)

	wd := r.prepData()

	assert.Equal(t, "1234", wd.SiteId)
	assert.Equal(t, "2024-03-01 12:00:00", wd.DateString)
	assert.Equal(t, version, wd.SoftwareType)
	assert.InDelta(t, 0.1, wd.RainIn, 1e-9)
	assert.InDelta(t, 68.0, wd.TempF, 1e-9)
	assert.InDelta(t, 53.6, wd.DewPointF, 1e-9)
	assert.InDelta(t, 60.0, wd.Humidity, 1e-9)
	assert.InDelta(t, 29.921, wd.PressureIn, 1e-3)

	// rain is only reported once
	assert.Equal(t, 0.0, r.prepData().RainIn)
}

func TestPrepDataFallsBackToBMP(t *testing.T) {
	r, snap := testReporter("http://localhost", true)
	snap.Record(rainTopics.BMPTemperature, 10)

	wd := r.prepData()
	assert.InDelta(t, 50.0, wd.TempF, 1e-9)
	assert.Equal(t, 0.0, wd.DewPointF)
	assert.Equal(t, 0.0, wd.PressureIn)
}

func TestPrepDataSkipsStaleReadings(t *testing.T) {
	r, snap := testReporter("http://localhost", true)
	fc := r.clock.(clockwork.FakeClock)
	snap.Record(rainTopics.DHTTemperature, 20)
	snap.Record(rainTopics.DHTHumidity, 60)
	snap.Record(rainTopics.BMPTemperature, 18)
	fc.Advance(10 * time.Minute)
	snap.Record(rainTopics.BMPPressure, 101325)

	// the DHT22 stopped reporting, the BMP280 temperature is just as old
	fc.Advance(6 * time.Minute)
	wd := r.prepData()
	assert.Equal(t, 0.0, wd.TempF)
	assert.Equal(t, 0.0, wd.Humidity)
	assert.Equal(t, 0.0, wd.DewPointF)
	assert.InDelta(t, 29.921, wd.PressureIn, 1e-3)
}

func TestReportUploads(t *testing.T) {
	srv := newWowServer(t, http.StatusOK)
	r, snap := testReporter(srv.URL, false)
	snap.Record(rainTopics.DHTHumidity, 71)
	r.Record(rainTopics.Depth, 2.54)

	require.NoError(t, r.report(context.Background()))

	require.Equal(t, 1, srv.hits)
	assert.Equal(t, "1234", srv.last.Get("siteid"))
	assert.Equal(t, "5678", srv.last.Get("siteAuthenticationKey"))
	assert.Equal(t, "2024-03-01 12:00:00", srv.last.Get("dateutc"))
	assert.Equal(t, "71", srv.last.Get("humidity"))
	rain, err := strconv.ParseFloat(srv.last.Get("rainin"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, rain, 1e-9)
}

func TestReportTestModeDoesNotUpload(t *testing.T) {
	srv := newWowServer(t, http.StatusOK)
	r, _ := testReporter(srv.URL, true)

	require.NoError(t, r.report(context.Background()))
	require.Equal(t, 0, srv.hits)
}

func TestReportBreakerOpens(t *testing.T) {
	srv := newWowServer(t, http.StatusInternalServerError)
	r, _ := testReporter(srv.URL, false)
	r.Record(rainTopics.Depth, 1)

	for i := 0; i < 3; i++ {
		require.ErrorContains(t, r.report(context.Background()), "500")
	}
	require.ErrorIs(t, r.report(context.Background()), gobreaker.ErrOpenState)
	require.Equal(t, 3, srv.hits)

	// failed uploads keep the rain for the next one
	assert.InDelta(t, 1.0, r.rainMM, 1e-9)
}
