package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/xauscalp/internal/domain"
)

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

var csvTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// LoadCSV lee un fichero de velas con cabecera
// timestamp,open,high,low,close,volume.
func LoadCSV(path string) ([]domain.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata.LoadCSV: %w", err)
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("marketdata.LoadCSV: %s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parsea velas en el orden del fichero. Las columnas se localizan
// por nombre; las extra se ignoran. Timestamps sin zona se toman como UTC.
func ReadCSV(r io.Reader) ([]domain.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(csvColumns))
	for i, name := range csvColumns {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = pos
	}

	var bars []domain.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b, err := parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseRow(rec []string, cols []int) (domain.Bar, error) {
	var b domain.Bar
	ts, err := parseTimestamp(rec[cols[0]])
	if err != nil {
		return b, err
	}
	b.Time = ts

	for i, dst := range []*float64{&b.Open, &b.High, &b.Low, &b.Close} {
		raw := strings.TrimSpace(rec[cols[i+1]])
		if *dst, err = strconv.ParseFloat(raw, 64); err != nil {
			return b, fmt.Errorf("%s %q: %w", csvColumns[i+1], raw, err)
		}
	}

	raw := strings.TrimSpace(rec[cols[5]])
	vol, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return b, fmt.Errorf("volume %q: %w", raw, err)
	}
	b.Volume = int64(vol)
	return b, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
