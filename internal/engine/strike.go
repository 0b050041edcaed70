package engine

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/contactkeval/option-lattice/internal/logger"
)

// ErrInvalidStrikeExpression is returned for strike rules that cannot be parsed.
var ErrInvalidStrikeExpression = errors.New("invalid strike expression")

// ResolveStrike turns a strike rule into a price.
//
// Supported rules (case-insensitive):
//
//	ATM          spot
//	ATM:+10      spot plus an absolute offset
//	ATM:-5%      spot plus a percentage offset
//	ABS:105      absolute strike
//	105          same as ABS:105
//	{SPOT}*0.95  arithmetic over {SPOT} and {STEP}
//
// ATM rules and expressions are rounded to the nearest multiple of step
// when step > 0.
func ResolveStrike(strikeExpr string, spot, step float64) (float64, error) {
	strikeExpr = strings.TrimSpace(strings.ToUpper(strikeExpr))
	logger.Debugf("event=resolve_strike expr=%s spot=%.4f", strikeExpr, spot)

	if strikeExpr == "ATM" {
		return roundToNearestStrike(spot, step), nil
	}

	if strings.HasPrefix(strikeExpr, "ATM:") {
		target, err := resolveATMOffset(strikeExpr[len("ATM:"):], spot)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidStrikeExpression, strikeExpr, err)
		}
		return roundToNearestStrike(target, step), nil
	}

	if strings.Contains(strikeExpr, "{") {
		target, err := evaluateStrikeExpression(strikeExpr, spot, step)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidStrikeExpression, strikeExpr, err)
		}
		return roundToNearestStrike(target, step), nil
	}

	abs := strings.TrimPrefix(strikeExpr, "ABS:")
	k, err := strconv.ParseFloat(abs, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeExpression, strikeExpr)
	}
	return k, nil
}

// resolveATMOffset applies an absolute or percentage offset to a price.
func resolveATMOffset(offset string, asOfPrice float64) (float64, error) {
	if strings.HasSuffix(offset, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(offset, "%"), 64)
		if err != nil {
			return 0, err
		}
		return math.Round((asOfPrice+asOfPrice*pct/100)*100) / 100, nil
	}

	abs, err := strconv.ParseFloat(offset, 64)
	if err != nil {
		return 0, err
	}

	return math.Round((asOfPrice+abs)*100) / 100, nil
}

var strikeVarRe = regexp.MustCompile(`\{(SPOT|STEP)\}`)

// evaluateStrikeExpression substitutes {SPOT} and {STEP} and evaluates the
// remaining arithmetic.
func evaluateStrikeExpression(expr string, spot, step float64) (float64, error) {
	if !strikeVarRe.MatchString(expr) {
		return 0, errors.New("no {SPOT} or {STEP} reference")
	}

	evalStr := strikeVarRe.ReplaceAllStringFunc(expr, func(m string) string {
		if m == "{SPOT}" {
			return fmt.Sprintf("%f", spot)
		}
		return fmt.Sprintf("%f", step)
	})
	if strings.ContainsAny(evalStr, "{}") {
		return 0, errors.New("unknown variable")
	}

	evalExpr, err := govaluate.NewEvaluableExpression(evalStr)
	if err != nil {
		return 0, err
	}

	result, err := evalExpr.Evaluate(nil)
	if err != nil {
		return 0, err
	}

	f, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("expression yields %T, not a number", result)
	}
	return f, nil
}

func roundToNearestStrike(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
