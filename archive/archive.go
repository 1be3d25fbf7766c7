// Package archive keeps a copy of every numeric reading a station publishes
// in Postgres or InfluxDB.
package archive

import (
	"context"
	"fmt"
	"time"
)

const (
	DriverNone     = ""
	DriverPostgres = "postgres"
	DriverInflux   = "influx"
)

type Config struct {
	Driver string `yaml:"driver"`
	// postgres
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
	// influx
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`

	Buffer int `yaml:"buffer"`
}

type Record struct {
	Station string
	Topic   string
	Value   float64
	Time    time.Time
}

// Sink receives readings from the publisher. Record must not block.
type Sink interface {
	Record(topic string, value float64)
	Close() error
}

// Reader returns archived readings for one topic, oldest first.
type Reader interface {
	Query(ctx context.Context, station string, topic string, from time.Time, to time.Time) ([]Record, error)
}

// Open builds the sink selected by cfg.Driver. It returns nil when archiving
// is disabled.
func Open(ctx context.Context, cfg Config, station string) (Sink, error) {
	switch cfg.Driver {
	case DriverNone:
		return nil, nil
	case DriverPostgres:
		p, err := OpenPostgres(cfg.DSN, cfg.Table, station, cfg.Buffer)
		if err != nil {
			return nil, err
		}
		if err := p.Migrate(ctx); err != nil {
			_ = p.Close()
			return nil, err
		}
		return p, nil
	case DriverInflux:
		return OpenInflux(cfg.URL, cfg.Token, cfg.Org, cfg.Bucket, station), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}
