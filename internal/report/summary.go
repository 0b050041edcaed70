package report

import (
	"fmt"
	"io"

	"github.com/leekchan/accounting"

	"github.com/contactkeval/option-lattice/internal/engine"
)

var money = accounting.DefaultAccounting("$", 3)

// WriteSummary prints the prices and the exercise boundary of a run.
func WriteSummary(w io.Writer, res *engine.Result) error {
	name := string(res.OptionType)
	if res.Underlying != "" {
		name = res.Underlying + " " + name
	}

	_, err := fmt.Fprintf(w, "American %s  K=%s  T=%.3fy  N=%d  (spot: %s, vol: %s)\n",
		name, money.FormatMoneyFloat64(res.Strike), res.Expiry, res.Steps, res.SpotSource, res.VolSource)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "European Price = %s\n", money.FormatMoneyDecimal(round(res.EuropeanPrice)))
	fmt.Fprintf(w, "American Price = %s\n", money.FormatMoneyDecimal(round(res.AmericanPrice)))
	fmt.Fprintf(w, "Early Exercise Premium = %s\n", money.FormatMoneyDecimal(round(res.EarlyExercisePremium)))

	fmt.Fprintf(w, "\nExercise Boundary Points:\n")
	for _, pt := range res.Boundary {
		fmt.Fprintf(w, "Time: %.3f, Exercise Boundary Price: %s\n", pt.Time, money.FormatMoneyFloat64(pt.Price))
	}
	return nil
}

// WriteLadderSummary prints one line per strike.
func WriteLadderSummary(w io.Writer, results []*engine.Result) error {
	if _, err := fmt.Fprintf(w, "%12s %14s %14s %14s\n", "strike", "american", "european", "premium"); err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(w, "%12s %14s %14s %14s\n",
			money.FormatMoneyFloat64(r.Strike),
			money.FormatMoneyFloat64(r.AmericanPrice),
			money.FormatMoneyFloat64(r.EuropeanPrice),
			money.FormatMoneyFloat64(r.EarlyExercisePremium))
	}
	return nil
}
