// stationexport extracts one topic from the reading archive or from a broker
// log export and writes it as CSV, optionally corrected or converted to flow.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gr-butler/hydrostation/analysis"
	"github.com/gr-butler/hydrostation/archive"
	"github.com/gr-butler/hydrostation/env"
	logger "github.com/sirupsen/logrus"
)

const timeLayout = "2006-01-02 15:04"

type options struct {
	dsn     string
	table   string
	input   string
	station string
	topic   string
	from    string
	to      string
	zone    string
	correct string
	flow    float64
	format  string
	out     string
}

func main() {
	o := options{}
	flag.StringVar(&o.dsn, "dsn", os.Getenv("ARCHIVE_DSN"), "postgres archive DSN")
	flag.StringVar(&o.table, "table", archive.DefaultTable, "archive table")
	flag.StringVar(&o.input, "input", "", "broker log export (JSON lines) instead of the archive")
	flag.StringVar(&o.station, "station", env.DrainageBaseName+"-1", "station name in the archive")
	flag.StringVar(&o.topic, "topic", "", "topic to export")
	flag.StringVar(&o.from, "from", "", "start, "+timeLayout)
	flag.StringVar(&o.to, "to", "", "end, "+timeLayout)
	flag.StringVar(&o.zone, "tz", "Local", "time zone of -from, -to and the output")
	flag.StringVar(&o.correct, "correct", "", "noise correction: forward (level) or backward (volume)")
	flag.Float64Var(&o.flow, "flow", 0, "tank radius in cm, exports the flow in cm3/min of a level series")
	flag.StringVar(&o.format, "format", "15:04", "time layout of the data column")
	flag.StringVar(&o.out, "out", "", "output file, stdout when empty")
	flag.Parse()

	if err := run(context.Background(), o); err != nil {
		logger.Fatalf("Export failed [%v]", err)
	}
}

func run(ctx context.Context, o options) error {
	if o.topic == "" {
		return fmt.Errorf("-topic is required")
	}
	loc, err := time.LoadLocation(o.zone)
	if err != nil {
		return err
	}
	from, to, err := window(o.from, o.to, loc)
	if err != nil {
		return err
	}

	points, err := load(ctx, o, from, to)
	if err != nil {
		return err
	}
	analysis.Sort(points)
	points = analysis.FilterRange(points, from, to)
	logger.Infof("%d readings of %s", len(points), o.topic)

	switch o.correct {
	case "":
	case "forward":
		points = analysis.CorrectForward(points)
	case "backward":
		points = analysis.CorrectBackward(points)
	default:
		return fmt.Errorf("unknown correction %q", o.correct)
	}
	if o.flow > 0 {
		points = analysis.Flow(points, o.flow)
	}

	var w io.Writer = os.Stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return analysis.WriteCSV(w, points, o.format, loc)
}

func window(from string, to string, loc *time.Location) (time.Time, time.Time, error) {
	start := time.Unix(0, 0)
	end := time.Now().Add(24 * time.Hour)
	var err error
	if from != "" {
		if start, err = time.ParseInLocation(timeLayout, from, loc); err != nil {
			return start, end, fmt.Errorf("bad -from: %w", err)
		}
	}
	if to != "" {
		if end, err = time.ParseInLocation(timeLayout, to, loc); err != nil {
			return start, end, fmt.Errorf("bad -to: %w", err)
		}
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("-to is before -from")
	}
	return start, end, nil
}

func load(ctx context.Context, o options, from time.Time, to time.Time) ([]analysis.Point, error) {
	if o.input != "" {
		f, err := os.Open(o.input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		byTopic, err := analysis.ReadLog(f)
		if err != nil {
			return nil, err
		}
		return byTopic[o.topic], nil
	}

	if o.dsn == "" {
		return nil, fmt.Errorf("either -input or -dsn (ARCHIVE_DSN) is required")
	}
	db, err := archive.OpenPostgres(o.dsn, o.table, o.station, 1)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	records, err := db.Query(ctx, o.station, o.topic, from, to)
	if err != nil {
		return nil, err
	}
	return analysis.FromRecords(records), nil
}
