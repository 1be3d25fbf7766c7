package analysis

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// broker log export, one JSON document per line:
//
//	{"topic": "ic/escoamentoTelhado-1/NivelAgua(cm)", "datetime": {"$date": "2024-03-01T12:00:00Z"}, "body": "20.00"}
type logLine struct {
	Topic    string `json:"topic"`
	DateTime struct {
		Date time.Time `json:"$date"`
	} `json:"datetime"`
	Body json.RawMessage `json:"body"`
}

// ReadLog groups the numeric readings of a broker log export by topic.
// Bodies that are not numbers, such as "Erro", are skipped.
func ReadLog(r io.Reader) (map[string][]Point, error) {
	out := make(map[string][]Point)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var l logLine
		if err := json.Unmarshal([]byte(text), &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if l.Topic == "" {
			continue
		}
		v, ok := parseBody(l.Body)
		if !ok {
			continue
		}
		out[l.Topic] = append(out[l.Topic], Point{Time: l.DateTime.Date, Value: v})
	}
	return out, scanner.Err()
}

func parseBody(raw json.RawMessage) (float64, bool) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

// WriteCSV writes a data,body table with the time in layout.
func WriteCSV(w io.Writer, points []Point, layout string, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"data", "body"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			p.Time.In(loc).Format(layout),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
