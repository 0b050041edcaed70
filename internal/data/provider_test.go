package data

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func testDateRange() (time.Time, time.Time) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return start, end
}

const sampleCSV = `date,open,high,low,close,volume
2024-12-31,99,101,98,100,1000
2025-01-02,100,102,99,101,1200
2025-01-03,101,103,100,102.5,1100
2025-01-06,102,104,101,101.75,900
not-a-date,1,1,1,1,1
2025-01-07,101,102,100,103,950
2025-01-08,103,104,102,0,950
`

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AAPL.csv"), []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("failed to write csv: %v", err)
	}
	return dir
}

func TestDataProviderContract_GetBars(t *testing.T) {
	start, end := testDateRange()
	dir := writeSampleCSV(t)

	providers := []struct {
		name     string
		provider Provider
	}{
		{"synthetic", NewSyntheticProvider(42)},
		{"csv", NewLocalCSVDataProvider(dir, nil)},
	}

	for _, prov := range providers {
		t.Run(prov.name, func(t *testing.T) {
			bars, err := prov.provider.GetBars(context.Background(), "AAPL", start, end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(bars) == 0 {
				t.Fatalf("expected non-empty bars")
			}

			for i, b := range bars {
				if b.Date.Before(start) || b.Date.After(end) {
					t.Fatalf("bar date out of range: %v", b.Date)
				}
				if b.Close <= 0 {
					t.Fatalf("expected positive close, got %v", b.Close)
				}
				if i > 0 && !bars[i-1].Date.Before(b.Date) {
					t.Fatalf("bars not sorted at %d", i)
				}
			}
		})
	}
}

func TestLocalCSVProvider_SkipsBadRows(t *testing.T) {
	start, end := testDateRange()
	prov := NewLocalCSVDataProvider(writeSampleCSV(t), nil)

	bars, err := prov.GetBars(context.Background(), "aapl", start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2024-12-31 is out of range, the bad date and the zero close are dropped
	want := []float64{101, 102.5, 101.75, 103}
	if got := extractCloses(bars); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected closes %v, got %v", want, got)
	}
}

func TestLocalCSVProvider_MissingFile(t *testing.T) {
	start, end := testDateRange()

	_, err := NewLocalCSVDataProvider(t.TempDir(), nil).GetBars(context.Background(), "MSFT", start, end)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	bars, err := NewLocalCSVDataProvider(t.TempDir(), NewSyntheticProvider(3)).GetBars(context.Background(), "MSFT", start, end)
	if err != nil || len(bars) == 0 {
		t.Fatalf("expected secondary to serve bars, got %d bars err=%v", len(bars), err)
	}
}

func TestSyntheticProvider_Deterministic(t *testing.T) {
	start, end := testDateRange()

	a, _ := NewSyntheticProvider(11).GetBars(context.Background(), "SPY", start, end)
	b, _ := NewSyntheticProvider(11).GetBars(context.Background(), "SPY", start, end)
	c, _ := NewSyntheticProvider(11).GetBars(context.Background(), "QQQ", start, end)

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different bars")
	}
	if reflect.DeepEqual(a, c) {
		t.Fatalf("different underlyings should not share a path")
	}
	for _, bar := range a {
		if bar.Date.Weekday() == time.Saturday || bar.Date.Weekday() == time.Sunday {
			t.Fatalf("unexpected weekend bar %v", bar.Date)
		}
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("MASSIVE_API_KEY", "")
	t.Setenv("POLYGON_API_KEY", "")

	if _, err := NewProvider(KindMassive, "", 0); err == nil {
		t.Fatalf("expected error without API key")
	}
	if _, err := NewProvider(KindCSV, "", 0); err == nil {
		t.Fatalf("expected error without data dir")
	}
	if _, err := NewProvider("bloomberg", "", 0); err == nil {
		t.Fatalf("expected error for unknown provider")
	}

	t.Setenv("MASSIVE_API_KEY", "k")
	prov, err := NewProvider(KindMassive, t.TempDir(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prov.Name() != KindMassive || prov.Secondary() == nil || prov.Secondary().Name() != KindCSV {
		t.Fatalf("expected massive -> csv chain, got %s -> %v", prov.Name(), prov.Secondary())
	}

	prov, err = NewProvider("", "", 5)
	if err != nil || prov.Name() != KindSynthetic {
		t.Fatalf("expected synthetic default, got %v err=%v", prov, err)
	}
	if prov.Secondary() != nil {
		t.Fatalf("synthetic provider should have no secondary")
	}
}
