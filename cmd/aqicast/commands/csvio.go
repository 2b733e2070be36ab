package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/skylab-io/aqicast/pkg/models"
)

// The pipeline core is format-agnostic; CSV ingestion and JSON report
// emission live here in the CLI only.

const (
	csvColEntity    = "city"
	csvColTimestamp = "timestamp"
	csvColSource    = "source"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// loadReadings parses a CSV file into readings. The file must carry a
// header row with city and timestamp columns; source is optional and
// every other column is parsed as a float measurement. Empty or
// unparseable cells become missing values.
func loadReadings(path string) ([]models.Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	entityIdx, timestampIdx, sourceIdx := -1, -1, -1
	for i, name := range header {
		switch name {
		case csvColEntity:
			entityIdx = i
		case csvColTimestamp:
			timestampIdx = i
		case csvColSource:
			sourceIdx = i
		}
	}
	if entityIdx < 0 || timestampIdx < 0 {
		return nil, fmt.Errorf("input must contain %q and %q columns", csvColEntity, csvColTimestamp)
	}

	var readings []models.Reading
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++

		ts, err := parseTimestamp(record[timestampIdx])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		reading := models.Reading{
			EntityID:  record[entityIdx],
			Timestamp: ts,
			Values:    make(map[string]float64),
		}
		if sourceIdx >= 0 {
			reading.Source = record[sourceIdx]
		}
		for i, cell := range record {
			if i == entityIdx || i == timestampIdx || i == sourceIdx {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				reading.Values[header[i]] = v
			}
		}
		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		return nil, fmt.Errorf("input contains no data rows")
	}
	return readings, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// writeTableCSV emits a table with the same city/timestamp/source
// leading columns loadReadings expects, so pipeline stages compose.
func writeTableCSV(path string, t *models.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	columns := t.Columns()
	header := append([]string{csvColEntity, csvColTimestamp, csvColSource}, columns...)
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := 0; i < t.NumRows(); i++ {
		record[0] = t.Entities[i]
		record[1] = t.Timestamps[i].Format(time.RFC3339)
		record[2] = t.Sources[i]
		for j, col := range columns {
			v := t.Column(col)[i]
			if math.IsNaN(v) {
				record[j+3] = ""
			} else {
				record[j+3] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// writeJSON writes an indented JSON document, or to stdout for "-".
func writeJSON(path string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	if path == "-" || path == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
