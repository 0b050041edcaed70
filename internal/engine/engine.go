package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contactkeval/option-lattice/internal/config"
	"github.com/contactkeval/option-lattice/internal/data"
	"github.com/contactkeval/option-lattice/internal/lattice"
	"github.com/contactkeval/option-lattice/internal/logger"
	"github.com/contactkeval/option-lattice/internal/pricing"
)

// ErrMissingMarketInput is returned when spot or vol is unset and there is
// no underlying/provider to resolve it from.
var ErrMissingMarketInput = errors.New("missing market input")

// SourceInput marks a value taken verbatim from the request.
const SourceInput = "input"

// MaxSteps bounds the lattice size; memory grows with Steps squared.
const MaxSteps = 20000

const defaultLookbackDays = 90

// Engine prices contracts for one configuration, resolving missing market
// inputs through its data provider. It is safe for concurrent use.
type Engine struct {
	cfg  *config.Config
	prov data.Provider
}

// Request describes one pricing run. Zero Spot or Vol are resolved from the
// engine's data provider when Underlying is set. A StrikeRule is resolved
// against the spot (see ResolveStrike).
type Request struct {
	OptionType string  `json:"option_type" binding:"required,oneof=call put"`
	Underlying string  `json:"underlying,omitempty"`
	Spot       float64 `json:"spot,omitempty" binding:"gte=0"`
	Strike     float64 `json:"strike,omitempty" binding:"required_without=StrikeRule,gte=0"`
	StrikeRule string  `json:"strike_rule,omitempty"`          // e.g. "ATM:-5%", overrides Strike
	Expiry     float64 `json:"expiry" binding:"required,gt=0"` // years
	Rate       float64 `json:"rate"`
	Vol        float64 `json:"vol,omitempty" binding:"gte=0"`
	Steps      int     `json:"steps" binding:"required,gte=1,lte=20000"`
}

// Result of a pricing run. Contract and Tables are kept for reporting and
// are not serialized.
type Result struct {
	OptionType           lattice.OptionType      `json:"option_type"`
	Underlying           string                  `json:"underlying,omitempty"`
	Spot                 float64                 `json:"spot"`
	Strike               float64                 `json:"strike"`
	Expiry               float64                 `json:"expiry"`
	Rate                 float64                 `json:"rate"`
	Vol                  float64                 `json:"vol"`
	Steps                int                     `json:"steps"`
	UpProb               float64                 `json:"up_prob"`
	AmericanPrice        float64                 `json:"american_price"`
	EuropeanPrice        float64                 `json:"european_price"`
	EarlyExercisePremium float64                 `json:"early_exercise_premium"`
	Boundary             []lattice.BoundaryPoint `json:"boundary"`
	SpotSource           string                  `json:"spot_source"`
	VolSource            string                  `json:"vol_source"`
	Elapsed              time.Duration           `json:"-"`

	Contract lattice.Contract `json:"-"`
	Tables   *lattice.Tables  `json:"-"`
}

// NewEngine returns an engine for cfg. prov may be nil when every request
// carries its own spot and vol.
func NewEngine(cfg *config.Config, prov data.Provider) *Engine {
	return &Engine{cfg: cfg, prov: prov}
}

// RequestFromConfig builds the configured single-run request.
func RequestFromConfig(cfg *config.Config) Request {
	return Request{
		OptionType: cfg.Option.Type,
		Underlying: cfg.Option.Underlying,
		Spot:       cfg.Option.Spot,
		Strike:     cfg.Option.Strike,
		StrikeRule: cfg.Option.StrikeRule,
		Expiry:     cfg.Option.Expiry,
		Rate:       cfg.Option.Rate,
		Vol:        cfg.Option.Vol,
		Steps:      cfg.Option.Steps,
	}
}

// Run prices the configured contract.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("engine: no configuration")
	}
	return e.Price(ctx, RequestFromConfig(e.cfg))
}

// Price resolves market inputs if needed and prices one contract.
func (e *Engine) Price(ctx context.Context, req Request) (*Result, error) {
	in, err := e.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return price(ctx, in)
}

// RunLadder prices the configured contract at each strike rule in
// parallel. Market inputs are resolved once; results are ordered by strike.
func (e *Engine) RunLadder(ctx context.Context, rules []string) ([]*Result, error) {
	if e.cfg == nil {
		return nil, fmt.Errorf("engine: no configuration")
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("engine: empty strike ladder")
	}

	base, err := e.resolve(ctx, RequestFromConfig(e.cfg))
	if err != nil {
		return nil, err
	}

	sorted := make([]float64, 0, len(rules))
	for _, rule := range rules {
		k, err := ResolveStrike(rule, base.Spot, e.strikeStep())
		if err != nil {
			return nil, err
		}
		sorted = append(sorted, k)
	}
	sort.Float64s(sorted)

	results := make([]*Result, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, k := range sorted {
		g.Go(func() error {
			in := base
			in.Strike = k
			res, err := price(gctx, in)
			if err != nil {
				return fmt.Errorf("strike %.2f: %w", k, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Infof("ladder priced %d strikes", len(results))
	return results, nil
}

// resolved is a request whose spot and vol are known.
type resolved struct {
	Request
	optType    lattice.OptionType
	spotSource string
	volSource  string
}

func (e *Engine) resolve(ctx context.Context, req Request) (resolved, error) {
	optType, err := lattice.ParseOptionType(req.OptionType)
	if err != nil {
		return resolved{}, err
	}
	in := resolved{Request: req, optType: optType, spotSource: SourceInput, volSource: SourceInput}
	in.Underlying = strings.ToUpper(strings.TrimSpace(req.Underlying))

	if req.Spot != 0 && req.Vol != 0 {
		return e.resolveStrike(in)
	}
	if in.Underlying == "" || e.prov == nil {
		return resolved{}, fmt.Errorf("%w: spot and vol must be set when no underlying/provider is configured", ErrMissingMarketInput)
	}

	asOf, lookback := time.Now().UTC(), defaultLookbackDays
	if e.cfg != nil {
		if asOf, err = e.cfg.AsOfDate(); err != nil {
			return resolved{}, err
		}
		lookback = e.cfg.Market.LookbackDays
	}

	mkt, err := data.ResolveMarketInputs(ctx, e.prov, in.Underlying, asOf, lookback)
	if err != nil {
		return resolved{}, fmt.Errorf("%w: %w", ErrMissingMarketInput, err)
	}
	if req.Spot == 0 {
		in.Spot, in.spotSource = mkt.Spot, e.prov.Name()
	}
	if req.Vol == 0 {
		in.Vol, in.volSource = mkt.RealizedVol, e.prov.Name()
	}
	return e.resolveStrike(in)
}

func (e *Engine) resolveStrike(in resolved) (resolved, error) {
	if in.StrikeRule == "" {
		return in, nil
	}
	k, err := ResolveStrike(in.StrikeRule, in.Spot, e.strikeStep())
	if err != nil {
		return resolved{}, err
	}
	in.Strike = k
	return in, nil
}

func (e *Engine) strikeStep() float64 {
	if e.cfg == nil {
		return 0
	}
	return e.cfg.Market.StrikeStep
}

func price(ctx context.Context, in resolved) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !(in.Strike > 0) || math.IsInf(in.Strike, 0) {
		return nil, &lattice.ConfigError{Param: "strike", Value: in.Strike, Constraint: "must be finite and > 0"}
	}
	if in.Steps > MaxSteps {
		return nil, &lattice.ConfigError{Param: "steps", Value: float64(in.Steps), Constraint: fmt.Sprintf("must be <= %d", MaxSteps)}
	}

	start := time.Now()
	c := lattice.Contract{
		Spot:   in.Spot,
		Expiry: in.Expiry,
		Rate:   in.Rate,
		Vol:    in.Vol,
		Steps:  in.Steps,
		Payoff: lattice.VanillaPayoff(in.optType, in.Strike),
	}
	logger.Infof("pricing american %s S=%.4f K=%.4f T=%.4f r=%.4f vol=%.4f N=%d",
		in.optType, c.Spot, in.Strike, c.Expiry, c.Rate, c.Vol, c.Steps)

	tables, err := lattice.Solve(c)
	if err != nil {
		return nil, fmt.Errorf("price %s K=%.2f: %w", in.optType, in.Strike, err)
	}

	american := tables.Price()
	european := pricing.BlackScholesPrice(in.optType.IsCall(), c.Spot, in.Strike, c.Expiry, c.Rate, c.Vol)
	if !in.optType.IsCall() && american < european-1e-9 {
		logger.Warnf("american put %.6f below european %.6f at K=%.2f; lattice too coarse?", american, european, in.Strike)
	}

	res := &Result{
		OptionType:           in.optType,
		Underlying:           in.Underlying,
		Spot:                 c.Spot,
		Strike:               in.Strike,
		Expiry:               c.Expiry,
		Rate:                 c.Rate,
		Vol:                  c.Vol,
		Steps:                c.Steps,
		UpProb:               c.Params().UpProb,
		AmericanPrice:        american,
		EuropeanPrice:        european,
		EarlyExercisePremium: american - european,
		Boundary:             lattice.ExerciseBoundary(c, tables.Policy, in.optType),
		SpotSource:           in.spotSource,
		VolSource:            in.volSource,
		Elapsed:              time.Since(start),
		Contract:             c,
		Tables:               tables,
	}
	logger.Infof("american=%.6f european=%.6f premium=%.6f boundary points=%d in %v",
		res.AmericanPrice, res.EuropeanPrice, res.EarlyExercisePremium, len(res.Boundary), res.Elapsed)
	return res, nil
}
