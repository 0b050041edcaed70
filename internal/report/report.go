package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/option-lattice/internal/engine"
	"github.com/contactkeval/option-lattice/internal/lattice"
)

// Output file names written under the report directory.
const (
	ResultFile     = "result.json"
	BoundaryFile   = "exercise_boundary.csv"
	ValueTableFile = "value_table.csv"
	LadderFile     = "ladder.csv"
)

// Places is the rounding applied to every reported number.
const Places = 6

// Report is the serialized form of a pricing result with numbers rounded
// to Places decimals.
type Report struct {
	OptionType           string          `json:"option_type"`
	Underlying           string          `json:"underlying,omitempty"`
	Spot                 decimal.Decimal `json:"spot"`
	Strike               decimal.Decimal `json:"strike"`
	Expiry               decimal.Decimal `json:"expiry"`
	Rate                 decimal.Decimal `json:"rate"`
	Vol                  decimal.Decimal `json:"vol"`
	Steps                int             `json:"steps"`
	UpProb               decimal.Decimal `json:"up_prob"`
	AmericanPrice        decimal.Decimal `json:"american_price"`
	EuropeanPrice        decimal.Decimal `json:"european_price"`
	EarlyExercisePremium decimal.Decimal `json:"early_exercise_premium"`
	SpotSource           string          `json:"spot_source"`
	VolSource            string          `json:"vol_source"`
	Boundary             []BoundaryRow   `json:"boundary"`
}

// BoundaryRow is one rounded exercise-boundary point.
type BoundaryRow struct {
	Time  decimal.Decimal `json:"time"`
	Price decimal.Decimal `json:"price"`
}

func round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(Places)
}

func fixed(v float64) string {
	return round(v).StringFixed(Places)
}

// NewReport rounds a result for output.
func NewReport(res *engine.Result) *Report {
	rep := &Report{
		OptionType:           string(res.OptionType),
		Underlying:           res.Underlying,
		Spot:                 round(res.Spot),
		Strike:               round(res.Strike),
		Expiry:               round(res.Expiry),
		Rate:                 round(res.Rate),
		Vol:                  round(res.Vol),
		Steps:                res.Steps,
		UpProb:               round(res.UpProb),
		AmericanPrice:        round(res.AmericanPrice),
		EuropeanPrice:        round(res.EuropeanPrice),
		EarlyExercisePremium: round(res.EarlyExercisePremium),
		SpotSource:           res.SpotSource,
		VolSource:            res.VolSource,
		Boundary:             make([]BoundaryRow, 0, len(res.Boundary)),
	}
	for _, pt := range res.Boundary {
		rep.Boundary = append(rep.Boundary, BoundaryRow{Time: round(pt.Time), Price: round(pt.Price)})
	}
	return rep
}

// WriteJSON writes the rounded report to ResultFile.
func WriteJSON(res *engine.Result, outdir string) error {
	b, err := json.MarshalIndent(NewReport(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, ResultFile), b, 0644)
}

// WriteBoundaryCSV writes the exercise boundary as time,price rows.
func WriteBoundaryCSV(boundary []lattice.BoundaryPoint, outdir string) error {
	rows := make([][]string, 0, len(boundary))
	for _, pt := range boundary {
		rows = append(rows, []string{fixed(pt.Time), fixed(pt.Price)})
	}
	return writeCSV(filepath.Join(outdir, BoundaryFile), []string{"time", "price"}, rows)
}

// WriteValueTableCSV writes one row per lattice node.
func WriteValueTableCSV(res *engine.Result, outdir string) error {
	if res.Tables == nil {
		return fmt.Errorf("value table: result carries no lattice tables")
	}
	c := res.Contract
	var rows [][]string
	for i, row := range res.Tables.Values {
		for j, v := range row {
			rows = append(rows, []string{
				strconv.Itoa(i),
				fixed(c.StepTime(i)),
				strconv.Itoa(j),
				fixed(c.StatePrice(i, j)),
				fixed(v),
				strconv.FormatBool(res.Tables.Policy[i][j]),
			})
		}
	}
	headers := []string{"step", "time", "up_count", "price", "value", "exercise"}
	return writeCSV(filepath.Join(outdir, ValueTableFile), headers, rows)
}

// WriteLadderCSV writes one row per ladder strike, in strike order.
func WriteLadderCSV(results []*engine.Result, outdir string) error {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fixed(r.Strike),
			fixed(r.AmericanPrice),
			fixed(r.EuropeanPrice),
			fixed(r.EarlyExercisePremium),
			strconv.Itoa(len(r.Boundary)),
		})
	}
	headers := []string{"strike", "american_price", "european_price", "early_exercise_premium", "boundary_points"}
	return writeCSV(filepath.Join(outdir, LadderFile), headers, rows)
}

func writeCSV(path string, headers []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
