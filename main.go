package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gr-butler/hydrostation/archive"
	"github.com/gr-butler/hydrostation/broker"
	"github.com/gr-butler/hydrostation/config"
	"github.com/gr-butler/hydrostation/data"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/led"
	"github.com/gr-butler/hydrostation/metrics"
	"github.com/gr-butler/hydrostation/network"
	"github.com/gr-butler/hydrostation/sensors"
	"github.com/gr-butler/hydrostation/station"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/i2c"

	logger "github.com/sirupsen/logrus"
)

const version = "hydrostation-1.0.0"

type hydrostation struct {
	cfg       *config.Config
	args      env.Args
	clock     clockwork.Clock
	snapshot  *data.Snapshot
	publisher *broker.Publisher
}

type webdata struct {
	TimeNow  string         `json:"time"`
	Station  string         `json:"station"`
	Version  string         `json:"version"`
	Readings []data.Reading `json:"readings"`
}

func main() {
	args := env.Args{
		Config:  flag.String("config", "", "config file (default: search ./hydrostation.yaml, ~/.config/hydrostation, /etc/hydrostation)"),
		Station: flag.String("station", "", "station kind, rain or drainage, overrides the config file"),
		Test:    flag.Bool("test", false, "test mode, does not send met office data"),
		Verbose: flag.Bool("verbose", false, "debug logging"),
		NoWow:   flag.Bool("nowow", false, "disable the met office upload"),
	}
	flag.Parse()

	logger.SetFormatter(&logger.TextFormatter{FullTimestamp: true})
	logger.Infof("Starting hydrostation [%v]", version)

	path, err := config.FindConfig(*args.Config)
	if err != nil {
		logger.Fatalf("No configuration [%v]", err)
	}
	cfg, err := config.Load(path, *args.Station)
	if err != nil {
		logger.Fatalf("Failed to load config [%v]", err)
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if *args.Test {
		logger.Info("TEST MODE")
	}
	logger.Infof("Loaded %s, station %s", path, cfg.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	w := hydrostation{
		cfg:      cfg,
		args:     args,
		clock:    clock,
		snapshot: data.CreateSnapshot(clock),
	}
	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Station stopped [%v]", err)
	}
	logger.Info("Exiting")
}

func (w *hydrostation) run(ctx context.Context) error {
	logger.Infof("%v: Initialize sensors...", time.Now().Format(time.RFC822))
	bus, err := sensors.InitHost(w.cfg.I2C.Bus)
	if err != nil {
		return err
	}
	defer bus.Close()

	linkLed := led.ByName("link", w.cfg.Pins.LinkLed, w.clock)
	brokerLed := led.ByName("broker", w.cfg.Pins.BrokerLed, w.clock)
	defer linkLed.Off()
	defer brokerLed.Off()

	acquirer, err := w.newAcquirer(linkLed)
	if err != nil {
		return err
	}

	client, err := broker.NewClient(w.cfg.Broker.Config)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	connector := broker.NewConnector(client, acquirer, brokerLed, w.cfg.Broker.Retry)
	if w.cfg.Broker.ConnectTimeout > 0 {
		connector.ConnectTimeout = w.cfg.Broker.ConnectTimeout
	}

	w.publisher = broker.NewPublisher(client, metrics.Readings{}, w.snapshot)
	sink, err := archive.Open(ctx, w.cfg.Archive, w.cfg.Name())
	if err != nil {
		return err
	}
	if sink != nil {
		logger.Infof("Archiving readings to %s", w.cfg.Archive.Driver)
		w.publisher.AddRecorder(sink)
		defer sink.Close()
	}

	st, pause, err := w.newStation(bus)
	if err != nil {
		return err
	}

	if w.cfg.Station == env.StationRain && w.cfg.WOW.Enabled && !*w.args.NoWow {
		reporter := newWowReporter(w.cfg.WOW, st.Topics(), w.snapshot, w.clock, *w.args.Test)
		w.publisher.AddRecorder(reporter)
		go reporter.Run(ctx)
	}

	if w.cfg.HTTP.Listen != "" {
		go w.serve(ctx, w.cfg.HTTP.Listen)
	}

	return station.NewLoop(st, client, connector, w.clock, pause).Run(ctx)
}

func (w *hydrostation) newAcquirer(indicator network.Indicator) (*network.Acquirer, error) {
	var link network.Link
	creds := w.cfg.Network.Credentials
	switch w.cfg.Network.Driver {
	case config.LinkStatic:
		link = network.Static{}
		if len(creds) == 0 {
			creds = []network.Credential{{SSID: "wired"}}
		}
	default:
		link = network.NewNMCLI(w.cfg.Network.Interface)
	}
	a, err := network.NewAcquirer(link, creds, indicator, w.clock, w.cfg.Network.Retry)
	if err != nil {
		return nil, err
	}
	if w.cfg.Network.Timeout > 0 {
		a.Timeout = w.cfg.Network.Timeout
	}
	return a, nil
}

func (w *hydrostation) newStation(bus i2c.Bus) (station.Station, time.Duration, error) {
	atmosphere := sensors.NewAtmosphere(sensors.NewBMP280(bus, w.cfg.I2C.BMP280Addr), w.cfg.I2C.Samples)
	topics := w.cfg.Topics()

	if w.cfg.Station == env.StationDrainage {
		ranger, err := sensors.NewHCSR04(w.cfg.Pins.RangerEcho, w.cfg.Pins.RangerTrig)
		if err != nil {
			return nil, 0, err
		}
		d := station.NewDrainage(w.publisher, topics, ranger, atmosphere, w.clock, w.cfg.Drainage)
		return d, w.cfg.Drainage.Tick, nil
	}

	tips, err := sensors.TipCounterByName(w.cfg.Pins.TipSensor, w.clock)
	if err != nil {
		return nil, 0, err
	}
	hygrometer := sensors.NewHygrometer(w.cfg.Hygrometer.Path, w.clock)
	r := station.NewRainGauge(w.publisher, topics, tips, atmosphere, hygrometer, w.cfg.Rain)
	return r, w.cfg.Rain.Tick, nil
}

func (w *hydrostation) serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handler)
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Infof("Starting webservice on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Webservice stopped [%v]", err)
	}
}

func (w *hydrostation) handler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	wd := webdata{
		TimeNow:  w.clock.Now().Format(time.RFC822),
		Station:  w.cfg.Name(),
		Version:  version,
		Readings: w.snapshot.All(),
	}

	js, err := json.Marshal(wd)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Debugf("Web read: \n[%v]", string(js))
	_, _ = rw.Write(js) // not much we can do if this fails
}
