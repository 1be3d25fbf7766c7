package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDisabled(t *testing.T) {
	sink, err := Open(context.Background(), Config{}, "pluviometro")
	require.NoError(t, err)
	require.Nil(t, sink)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, "pluviometro")
	require.ErrorContains(t, err, `unknown archive driver "mysql"`)
}

func TestStatements(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "readings" (station, topic, value, recorded_at) VALUES ($1, $2, $3, $4)`,
		insertStatement("readings"))
	assert.Contains(t, createStatement(`odd"name`), `"odd""name"`)
	assert.Contains(t, selectStatement("readings"), "ORDER BY recorded_at")
}

func TestPostgresRecordDropsWhenFull(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &Postgres{
		station: "escoamentoTelhado-1",
		records: make(chan Record, 1),
		now:     func() time.Time { return at },
	}

	p.Record("ic/escoamentoTelhado-1/NivelAgua(cm)", 20)
	p.Record("ic/escoamentoTelhado-1/Volume(cm3)", 56548.67)

	require.Len(t, p.records, 1)
	require.Equal(t, Record{
		Station: "escoamentoTelhado-1",
		Topic:   "ic/escoamentoTelhado-1/NivelAgua(cm)",
		Value:   20,
		Time:    at,
	}, <-p.records)
}

func TestInfluxPoint(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := point("pluviometro", "ic/pluviometro/Chuva/Milimetros(mm)", 0.38, at)

	require.Equal(t, "reading", p.Name())
	require.Equal(t, at, p.Time())

	tags := map[string]string{}
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	require.Equal(t, map[string]string{
		"station": "pluviometro",
		"topic":   "ic/pluviometro/Chuva/Milimetros(mm)",
	}, tags)

	require.Len(t, p.FieldList(), 1)
	require.Equal(t, "value", p.FieldList()[0].Key)
	require.Equal(t, 0.38, p.FieldList()[0].Value)
}
