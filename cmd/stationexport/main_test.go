package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const level = "ic/escoamentoTelhado-1/NivelAgua(cm)"

func writeLog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Telhado1.json")
	body := `{"topic": "` + level + `", "datetime": {"$date": "2024-03-01T12:02:00Z"}, "body": "21.00"}
{"topic": "` + level + `", "datetime": {"$date": "2024-03-01T12:00:00Z"}, "body": "20.00"}
{"topic": "` + level + `", "datetime": {"$date": "2024-03-01T12:01:00Z"}, "body": "15.00"}
{"topic": "` + level + `", "datetime": {"$date": "2024-03-01T13:00:00Z"}, "body": "40.00"}
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestRunFromLog(t *testing.T) {
	out := filepath.Join(t.TempDir(), "level.csv")
	err := run(context.Background(), options{
		input:   writeLog(t),
		topic:   level,
		from:    "2024-03-01 12:00",
		to:      "2024-03-01 12:30",
		zone:    "UTC",
		correct: "forward",
		format:  "15:04",
		out:     out,
	})
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "data,body\n12:00,20\n12:02,21\n", string(got))
}

func TestRunRequiresSource(t *testing.T) {
	err := run(context.Background(), options{topic: level, zone: "UTC"})
	require.ErrorContains(t, err, "-input or -dsn")
}

func TestWindow(t *testing.T) {
	from, to, err := window("2024-03-01 12:00", "2024-03-01 13:00", time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Hour, to.Sub(from))

	_, _, err = window("2024-03-01 13:00", "2024-03-01 12:00", time.UTC)
	require.Error(t, err)
}
