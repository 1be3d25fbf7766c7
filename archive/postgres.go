package archive

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
)

const (
	DefaultTable  = "readings"
	defaultBuffer = 256
	writeTimeout  = 5 * time.Second
)

// Postgres writes readings from a background goroutine so a slow database
// never holds up a measurement cycle. Readings are dropped when the queue is
// full.
type Postgres struct {
	db      *sql.DB
	table   string
	station string

	lock    sync.Mutex
	closed  bool
	records chan Record
	done    chan struct{}
	now     func() time.Time
}

func OpenPostgres(dsn string, table string, station string, buffer int) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return NewPostgres(db, table, station, buffer), nil
}

func NewPostgres(db *sql.DB, table string, station string, buffer int) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	if buffer < 1 {
		buffer = defaultBuffer
	}
	p := &Postgres{
		db:      db,
		table:   table,
		station: station,
		records: make(chan Record, buffer),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go p.run()
	return p
}

func createStatement(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          BIGSERIAL PRIMARY KEY,
	station     TEXT NOT NULL,
	topic       TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
)`, pq.QuoteIdentifier(table))
}

func insertStatement(table string) string {
	return fmt.Sprintf("INSERT INTO %s (station, topic, value, recorded_at) VALUES ($1, $2, $3, $4)",
		pq.QuoteIdentifier(table))
}

func selectStatement(table string) string {
	return fmt.Sprintf("SELECT station, topic, value, recorded_at FROM %s "+
		"WHERE station = $1 AND topic = $2 AND recorded_at BETWEEN $3 AND $4 ORDER BY recorded_at",
		pq.QuoteIdentifier(table))
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createStatement(p.table)); err != nil {
		return fmt.Errorf("creating table %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) Record(topic string, value float64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.records <- Record{Station: p.station, Topic: topic, Value: value, Time: p.now()}:
	default:
		logger.Debugf("Archive queue full, dropping %s", topic)
	}
}

func (p *Postgres) run() {
	defer close(p.done)
	stmt := insertStatement(p.table)
	for r := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		_, err := p.db.ExecContext(ctx, stmt, r.Station, r.Topic, r.Value, r.Time.UTC())
		cancel()
		if err != nil {
			logger.Errorf("Failed to write to db [%v]", err)
		}
	}
}

func (p *Postgres) Query(ctx context.Context, station string, topic string, from time.Time, to time.Time) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, selectStatement(p.table), station, topic, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", topic, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Station, &r.Topic, &r.Value, &r.Time); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close flushes queued readings and closes the database.
func (p *Postgres) Close() error {
	p.lock.Lock()
	if !p.closed {
		p.closed = true
		close(p.records)
	}
	p.lock.Unlock()
	<-p.done
	return p.db.Close()
}
