package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/cmd/common"
	"github.com/ducminhle1904/sizing-lab/internal/backtest"
	"github.com/ducminhle1904/sizing-lab/internal/errors"
	"github.com/ducminhle1904/sizing-lab/internal/indicators"
	"github.com/ducminhle1904/sizing-lab/pkg/config"
	"github.com/ducminhle1904/sizing-lab/pkg/data"
)

var smoothingChoices = []string{string(indicators.SmoothingSimple), string(indicators.SmoothingWilder)}

// defaultFetchStart is used when no start date is configured
var defaultFetchStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// run opens a session for analysis and hands it to fn
func run(cmd *cobra.Command, analysis string, fn func(s *common.Session) error) error {
	s, err := common.StartSession(cmd, globalFlags, analysis)
	if err != nil {
		return err
	}
	applyPairFlags(cmd, &s.Config.Data)
	return s.Finish(fn(s))
}

func applyPairFlags(cmd *cobra.Command, d *config.DataConfig) {
	flags := cmd.Flags()
	if flags.Changed("ticker") {
		d.Ticker = strings.ToUpper(pairFlags.ticker)
	}
	if flags.Changed("base") {
		d.Base = strings.ToUpper(pairFlags.base)
	}
	if flags.Changed("start") {
		d.Start = pairFlags.start
	}
	if flags.Changed("end") {
		d.End = pairFlags.end
	}
}

// loadFrame loads the configured pair and aligns it on common dates
func loadFrame(s *common.Session) (*backtest.Frame, error) {
	d := s.Config.Data
	start, end, err := d.DateRange()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorCategoryValidation, "ratio-lab", "date range")
	}

	merged, err := s.Data.LoadPair(d.Folder, d.Ticker, d.Base, start, end)
	if err != nil {
		return nil, errors.NewDataError("ratio-lab", "load pair", err)
	}
	frame, err := backtest.FrameFromMerged(d.Ticker, d.Base, merged)
	if err != nil {
		return nil, errors.NewDataError("ratio-lab", "build frame", err)
	}

	common.Info("Loaded %s common dates for %s/%s (%s to %s)",
		common.FormatCount(frame.Len()), d.Ticker, d.Base,
		frame.Dates[0].Format(time.DateOnly), frame.Dates[frame.Len()-1].Format(time.DateOnly))
	s.LogParameters(map[string]interface{}{
		"ticker": d.Ticker,
		"base":   d.Base,
		"rows":   frame.Len(),
	})
	return frame, nil
}

func newBacktestCmd() *cobra.Command {
	var (
		period       int
		lower, upper float64
		smoothing    string
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Backtest one RSI threshold pair against buy and hold",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "backtest", func(s *common.Session) error {
				r := &s.Config.Ratio
				if cmd.Flags().Changed("period") {
					r.Period = period
				}
				if cmd.Flags().Changed("lower") {
					r.Lower = lower
				}
				if cmd.Flags().Changed("upper") {
					r.Upper = upper
				}
				if cmd.Flags().Changed("smoothing") {
					r.Smoothing = smoothing
				}
				v := common.NewFlagValidator().ValidateInt("period", r.Period, 1, 1<<16)
				if cmd.Flags().Changed("smoothing") {
					v.ValidateChoice("smoothing", smoothing, smoothingChoices)
				}
				if v.HasErrors() {
					return errors.NewValidationError("backtest", "flags", v.GetError().Error())
				}
				if err := s.Revalidate(); err != nil {
					return err
				}
				params, err := s.Config.RatioParams()
				if err != nil {
					return errors.WrapError(err, errors.ErrorCategoryValidation, "backtest", "params")
				}
				if err := params.Validate(); err != nil {
					return errors.WrapError(err, errors.ErrorCategoryValidation, "backtest", "params")
				}
				common.Header(fmt.Sprintf("%s/%s RSI(%d) %g/%g", s.Config.Data.Ticker, s.Config.Data.Base, params.Period, params.Lower, params.Upper))

				frame, err := loadFrame(s)
				if err != nil {
					return err
				}
				res := backtest.NewEngine().Run(frame, params)
				s.LogResult("backtest", map[string]float64{
					"trades":          float64(res.Trades),
					"strategy_sharpe": res.StrategySharpe,
					"ticker_sharpe":   res.TickerSharpe,
					"total_return":    res.TotalReturn,
					"max_drawdown":    res.MaxDrawdown,
				})
				return common.Wrap(s.Reporter.ReportBacktest(res, frame.Ticker, frame.Base), errors.ErrorCategoryOutput, "backtest", "report")
			})
		},
	}
	defaults := backtest.DefaultParams()
	cmd.Flags().IntVar(&period, "period", defaults.Period, "RSI lookback")
	cmd.Flags().Float64Var(&lower, "lower", defaults.Lower, "Entry threshold")
	cmd.Flags().Float64Var(&upper, "upper", defaults.Upper, "Exit threshold")
	cmd.Flags().StringVar(&smoothing, "smoothing", string(defaults.Smoothing), "RSI averaging: simple or wilder")
	return cmd
}

// sweepKind describes one of the one dimensional parameter sweeps
type sweepKind struct {
	use      string
	analysis string
	title    string
	param    string
	short    string
	bounds   func(r *config.RatioConfig) (lo, hi *int)
	set      func(p *backtest.Params, v int)
	sweep    func(o *backtest.ParameterOptimizer, ctx context.Context, lo, hi int) ([]backtest.SweepPoint, error)
}

var (
	sweepLower = sweepKind{
		use:      "sweep-lower",
		analysis: "sweep_lower",
		title:    "Sharpe Ratio vs Lower RSI Threshold",
		param:    "Lower",
		short:    "Sweep the entry threshold with the exit threshold fixed",
		bounds:   func(r *config.RatioConfig) (*int, *int) { return &r.LowerStart, &r.LowerEnd },
		set:      func(p *backtest.Params, v int) { p.Lower = float64(v) },
		sweep:    (*backtest.ParameterOptimizer).SweepLower,
	}
	sweepUpper = sweepKind{
		use:      "sweep-upper",
		analysis: "sweep_upper",
		title:    "Sharpe Ratio vs Upper RSI Threshold",
		param:    "Upper",
		short:    "Sweep the exit threshold with the entry threshold fixed",
		bounds:   func(r *config.RatioConfig) (*int, *int) { return &r.UpperStart, &r.UpperEnd },
		set:      func(p *backtest.Params, v int) { p.Upper = float64(v) },
		sweep:    (*backtest.ParameterOptimizer).SweepUpper,
	}
	sweepLookback = sweepKind{
		use:      "sweep-lookback",
		analysis: "sweep_lookback",
		title:    "Sharpe Ratio vs RSI Lookback Period",
		param:    "Lookback",
		short:    "Sweep the RSI period with both thresholds fixed",
		bounds:   func(r *config.RatioConfig) (*int, *int) { return &r.LookbackStart, &r.LookbackEnd },
		set:      func(p *backtest.Params, v int) { p.Period = v },
		sweep:    (*backtest.ParameterOptimizer).SweepLookback,
	}
)

// sweepFlags are the fixed parameters shared by the sweeps and the heatmap
type sweepFlags struct {
	period       int
	lower, upper float64
	smoothing    string
}

func (f *sweepFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.period, "period", backtest.DefaultSweepPeriod, "RSI lookback held fixed")
	cmd.Flags().Float64Var(&f.lower, "lower", backtest.DefaultFixedLower, "Entry threshold held fixed")
	cmd.Flags().Float64Var(&f.upper, "upper", backtest.DefaultFixedUpper, "Exit threshold held fixed")
	cmd.Flags().StringVar(&f.smoothing, "smoothing", string(backtest.DefaultParams().Smoothing), "RSI averaging: simple or wilder")
}

func (f *sweepFlags) apply(cmd *cobra.Command, r *config.RatioConfig) {
	if cmd.Flags().Changed("period") {
		r.SweepPeriod = f.period
	}
	if cmd.Flags().Changed("lower") {
		r.FixedLower = f.lower
	}
	if cmd.Flags().Changed("upper") {
		r.FixedUpper = f.upper
	}
	if cmd.Flags().Changed("smoothing") {
		r.Smoothing = f.smoothing
	}
}

// newOptimizer loads the pair and prepares an optimizer around the fixed
// sweep parameters
func newOptimizer(s *common.Session, total int, label string) (*backtest.ParameterOptimizer, backtest.Params, *common.ProgressBar, error) {
	base, err := s.Config.SweepParams()
	if err != nil {
		return nil, base, nil, errors.WrapError(err, errors.ErrorCategoryValidation, s.Analysis, "params")
	}
	frame, err := loadFrame(s)
	if err != nil {
		return nil, base, nil, err
	}
	bar := common.NewProgressBar(total, label)
	o := backtest.NewParameterOptimizer(frame, base, s.Config.Workers).
		WithMetrics(s.Metrics).
		WithProgress(bar.Update)
	return o, base, bar, nil
}

func newSweepCmd(kind sweepKind) *cobra.Command {
	var (
		fixed    sweepFlags
		from, to int
	)
	cmd := &cobra.Command{
		Use:   kind.use,
		Short: kind.short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, kind.analysis, func(s *common.Session) error {
				r := &s.Config.Ratio
				fixed.apply(cmd, r)
				lo, hi := kind.bounds(r)
				if cmd.Flags().Changed("from") {
					*lo = from
				}
				if cmd.Flags().Changed("to") {
					*hi = to
				}
				if v := common.NewFlagValidator().ValidateRange(kind.use, *lo, *hi); v.HasErrors() {
					return errors.NewValidationError(kind.analysis, "flags", v.GetError().Error())
				}
				if err := s.Revalidate(); err != nil {
					return err
				}
				common.Header(kind.title)

				o, base, bar, err := newOptimizer(s, *hi-*lo+1, kind.param)
				if err != nil {
					return err
				}
				points, err := kind.sweep(o, cmd.Context(), *lo, *hi)
				bar.Finish()
				if err != nil {
					return errors.CategorizeError(err, kind.analysis, "sweep")
				}

				if best, ok := backtest.BestPoint(points); ok {
					s.LogResult(kind.analysis, map[string]float64{
						"best_value":  float64(best.Value),
						"best_sharpe": best.Sharpe,
					})
				} else {
					common.Warn("No %s value produced a finite Sharpe ratio", strings.ToLower(kind.param))
				}
				return common.Wrap(s.Reporter.ReportSweep(kind.analysis, kind.title, kind.param, base, kind.set, points),
					errors.ErrorCategoryOutput, kind.analysis, "report")
			})
		},
	}
	fixed.register(cmd)
	defLo, defHi := kind.bounds(&config.DefaultConfig().Ratio)
	cmd.Flags().IntVar(&from, "from", *defLo, "First value of the sweep")
	cmd.Flags().IntVar(&to, "to", *defHi, "Last value of the sweep")
	return cmd
}

func newHeatmapCmd() *cobra.Command {
	var (
		fixed                                      sweepFlags
		lowerStart, lowerEnd, upperStart, upperEnd int
	)
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Sharpe ratio over every lower x upper threshold pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "heatmap", func(s *common.Session) error {
				r := &s.Config.Ratio
				fixed.apply(cmd, r)
				for name, dst := range map[string]*int{
					"lower-start": &r.LowerStart,
					"lower-end":   &r.LowerEnd,
					"upper-start": &r.UpperStart,
					"upper-end":   &r.UpperEnd,
				} {
					if !cmd.Flags().Changed(name) {
						continue
					}
					v, _ := cmd.Flags().GetInt(name)
					*dst = v
				}
				if err := s.Revalidate(); err != nil {
					return err
				}
				common.Header(fmt.Sprintf("Sharpe Heatmap RSI(%d)", r.SweepPeriod))

				lowers := backtest.IntRange(r.LowerStart, r.LowerEnd)
				uppers := backtest.IntRange(r.UpperStart, r.UpperEnd)
				o, _, bar, err := newOptimizer(s, len(lowers)*len(uppers), "grid")
				if err != nil {
					return err
				}
				common.Progress("Evaluating %s threshold pairs", common.FormatCount(len(lowers)*len(uppers)))
				grid, err := o.Heatmap(cmd.Context(), lowers, uppers)
				bar.Finish()
				if err != nil {
					return errors.CategorizeError(err, "heatmap", "grid")
				}

				lower, upper, sharpe := grid.Best()
				s.LogResult("heatmap", map[string]float64{
					"best_lower":  float64(lower),
					"best_upper":  float64(upper),
					"best_sharpe": sharpe,
				})
				return common.Wrap(s.Reporter.ReportHeatmap(grid), errors.ErrorCategoryOutput, "heatmap", "report")
			})
		},
	}
	fixed.register(cmd)
	cmd.Flags().IntVar(&lowerStart, "lower-start", backtest.DefaultLowerStart, "First lower threshold")
	cmd.Flags().IntVar(&lowerEnd, "lower-end", backtest.DefaultLowerEnd, "Last lower threshold")
	cmd.Flags().IntVar(&upperStart, "upper-start", backtest.DefaultUpperStart, "First upper threshold")
	cmd.Flags().IntVar(&upperEnd, "upper-end", backtest.DefaultUpperEnd, "Last upper threshold")
	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		tickers   []string
		perSecond float64
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download daily histories into the data folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "fetch", func(s *common.Session) error {
				d := s.Config.Data
				if len(tickers) == 0 {
					tickers = []string{d.Ticker, d.Base}
				}
				for i := range tickers {
					tickers[i] = strings.ToUpper(tickers[i])
				}
				start, end, err := d.DateRange()
				if err != nil {
					return errors.WrapError(err, errors.ErrorCategoryValidation, "fetch", "date range")
				}
				if start.IsZero() {
					start = defaultFetchStart
				}
				common.Header("Fetch " + strings.Join(tickers, ", "))

				fetcher := data.NewQuoteFetcher(data.YahooSource, perSecond)
				paths, err := fetcher.Fetch(cmd.Context(), d.Folder, tickers, start, end)
				for _, p := range paths {
					common.Success("Saved %s", p)
				}
				if err != nil {
					return errors.WrapError(err, errors.ErrorCategoryNetwork, "fetch", "download")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "Tickers to download (default ticker and base)")
	cmd.Flags().Float64Var(&perSecond, "rate", 1, "Requests per second")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintVersion(cmd.OutOrStdout(), appName)
		},
	}
}
