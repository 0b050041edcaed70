package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/option-lattice/internal/logger"
)

// localCSVDataProvider implements Provider from local files: one
// <TICKER>.csv per underlying with the header
//
//	date,open,high,low,close,volume
//
// and dates formatted as 2006-01-02.
type localCSVDataProvider struct {
	dir       string
	secondary Provider
}

// NewLocalCSVDataProvider convenience constructor.
func NewLocalCSVDataProvider(dir string, secondary Provider) *localCSVDataProvider {
	return &localCSVDataProvider{dir: dir, secondary: secondary}
}

func (localCSVDataProv *localCSVDataProvider) Name() string { return KindCSV }

func (localCSVDataProv *localCSVDataProvider) Secondary() Provider {
	return localCSVDataProv.secondary
}

func (localCSVDataProv *localCSVDataProvider) GetBars(ctx context.Context, underlying string, fromDate, toDate time.Time) ([]Bar, error) {
	bars, err := localCSVDataProv.readBars(underlying)
	if err == nil {
		bars = filterBars(bars, fromDate, toDate)
		if len(bars) == 0 {
			err = fmt.Errorf("%w for %s in %s", ErrNoBars, underlying, localCSVDataProv.dir)
		}
	}
	if err != nil {
		return fallback(ctx, localCSVDataProv, err, underlying, fromDate, toDate)
	}
	return bars, nil
}

func (localCSVDataProv *localCSVDataProvider) readBars(underlying string) ([]Bar, error) {
	path := filepath.Join(localCSVDataProv.dir, strings.ToUpper(strings.TrimSpace(underlying))+".csv")
	logger.Debugf("reading bars from %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing %q column", path, required)
		}
	}

	field := func(row []string, name string) float64 {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return 0
		}
		v, _ := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		return v
	}

	var out []Bar
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[cols["date"]]))
		if err != nil {
			logger.Tracef("%s:%d skipping row with bad date: %v", path, line, err)
			continue
		}
		closePx := field(row, "close")
		if closePx <= 0 {
			logger.Tracef("%s:%d skipping row with non-positive close", path, line)
			continue
		}

		out = append(out, Bar{
			Date:  date,
			Open:  field(row, "open"),
			High:  field(row, "high"),
			Low:   field(row, "low"),
			Close: closePx,
			Vol:   field(row, "volume"),
		})
	}
	return out, nil
}
