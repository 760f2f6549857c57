package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/cmd/common"
	"github.com/ducminhle1904/sizing-lab/internal/errors"
	"github.com/ducminhle1904/sizing-lab/internal/montecarlo"
	"github.com/ducminhle1904/sizing-lab/internal/sizing"
	"github.com/ducminhle1904/sizing-lab/pkg/data"
	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// run opens a session for analysis and hands it to fn
func run(cmd *cobra.Command, analysis string, fn func(s *common.Session) error) error {
	s, err := common.StartSession(cmd, globalFlags, analysis)
	if err != nil {
		return err
	}
	return s.Finish(fn(s))
}

// loadPnL reads the trade series selected by --pnl/--column or the config
func loadPnL(s *common.Session) (types.PnLSeries, error) {
	path := s.Config.Data.PnLFile
	if pnlFile != "" {
		path = pnlFile
	}

	v := common.NewFlagValidator().ValidateFile("pnl", path, true)
	if v.HasErrors() {
		return nil, errors.NewAnalysisError(errors.ErrorCategoryData, "kelly-lab", "load pnl", v.GetError().Error())
	}

	dm := s.Data
	if pnlColumn != "" {
		dm = data.NewDataManagerWithProviders(data.NewCSVPnLProviderWithColumn(pnlColumn), dm.GetProvider())
	}

	pnl, err := dm.LoadPnL(path)
	if err != nil {
		return nil, errors.NewDataError("kelly-lab", "load pnl", err)
	}
	common.Info("Loaded %s trades from %s", common.FormatCount(pnl.Len()), path)
	s.LogParameters(map[string]interface{}{"pnl_file": path, "trades": pnl.Len()})
	return pnl, nil
}

func newThorpCmd() *cobra.Command {
	var riskFree float64
	cmd := &cobra.Command{
		Use:   "thorp",
		Short: "Kelly fraction (mu - r) / sigma^2 and the PnL distribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "thorp", func(s *common.Session) error {
				if cmd.Flags().Changed("risk-free") {
					s.Config.Kelly.RiskFree = riskFree
				}
				common.Header("Thorp Kelly")

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}
				res, err := sizing.AnalyzeThorp(sizing.ComputeStats(pnl), s.Config.Kelly.RiskFree)
				if err != nil {
					return errors.NewSimulationError("thorp", "kelly fraction", err)
				}
				s.LogResult("thorp", map[string]float64{
					"mean":     res.Stats.Mean,
					"variance": res.Stats.Variance,
					"fraction": res.Fraction,
				})
				return common.Wrap(s.Reporter.ReportThorp(res, pnl.Values()), errors.ErrorCategoryOutput, "thorp", "report")
			})
		},
	}
	cmd.Flags().Float64Var(&riskFree, "risk-free", 0, "Risk-free rate per trade")
	return cmd
}

func newBettingCmd() *cobra.Command {
	var (
		lossMin, lossMax float64
		points           int
	)
	cmd := &cobra.Command{
		Use:   "betting",
		Short: "Betting Kelly f = p/a - q/b over a grid of average losses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "betting", func(s *common.Session) error {
				k := &s.Config.Kelly
				if cmd.Flags().Changed("loss-min") {
					k.LossGridMin = lossMin
				}
				if cmd.Flags().Changed("loss-max") {
					k.LossGridMax = lossMax
				}
				if cmd.Flags().Changed("points") {
					k.LossGridSteps = points
				}
				v := common.NewFlagValidator().
					ValidateInt("points", k.LossGridSteps, 1, 1_000_000).
					ValidateFloat("loss-min", k.LossGridMin, 0, k.LossGridMax)
				if v.HasErrors() {
					return errors.NewValidationError("betting", "flags", v.GetError().Error())
				}
				common.Header("Betting Kelly")

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}
				res := sizing.AnalyzeBetting(pnl, k.LossGridMin, k.LossGridMax, k.LossGridSteps)
				s.LogResult("betting", map[string]float64{
					"p":           res.WinProb,
					"q":           res.LossProb,
					"b":           res.AvgWin,
					"a":           res.AvgLoss,
					"at_avg_loss": res.AtAvgLoss,
				})
				return common.Wrap(s.Reporter.ReportBetting(res), errors.ErrorCategoryOutput, "betting", "report")
			})
		},
	}
	cmd.Flags().Float64Var(&lossMin, "loss-min", sizing.DefaultLossGridMin, "Smallest average loss of the grid")
	cmd.Flags().Float64Var(&lossMax, "loss-max", sizing.DefaultLossGridMax, "Largest average loss of the grid")
	cmd.Flags().IntVar(&points, "points", sizing.DefaultLossGridPoints, "Grid points")
	return cmd
}

func newFixedFractionCmd() *cobra.Command {
	var (
		maxRisk                  float64
		points, trades, shuffles int
	)
	cmd := &cobra.Command{
		Use:     "fixed-fraction",
		Aliases: []string{"k1"},
		Short:   "Fixed fractional risk maximising final equity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "fixed_fraction", func(s *common.Session) error {
				k := &s.Config.Kelly
				if cmd.Flags().Changed("max-risk") {
					k.MaxRisk = maxRisk
				}
				if cmd.Flags().Changed("points") {
					k.RiskPoints = points
				}
				if cmd.Flags().Changed("trades") {
					k.Trades = trades
				}
				if cmd.Flags().Changed("shuffles") {
					k.Shuffles = shuffles
				}
				v := common.NewFlagValidator().
					ValidateFloat("max-risk", k.MaxRisk, sizing.DefaultMinRisk, 1).
					ValidateInt("points", k.RiskPoints, 1, 1_000_000).
					ValidateInt("shuffles", k.Shuffles, 0, 1_000_000)
				if v.HasErrors() {
					return errors.NewValidationError("fixed-fraction", "flags", v.GetError().Error())
				}
				common.Header("Fixed Fractional Sizing")

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}
				res := sizing.OptimizeFixedFractionWithConfig(pnl, sizing.WinLossRatio(pnl), s.Config.FixedFractionConfig())
				s.LogResult("fixed_fraction", map[string]float64{
					"win_loss_ratio": res.WinLossRatio,
					"optimal_risk":   res.OptimalRisk,
				})
				return common.Wrap(s.Reporter.ReportFixedFraction(res), errors.ErrorCategoryOutput, "fixed-fraction", "report")
			})
		},
	}
	cmd.Flags().Float64Var(&maxRisk, "max-risk", sizing.DefaultMaxRisk, "Largest risk per trade")
	cmd.Flags().IntVar(&points, "points", sizing.DefaultRiskPoints, "Risk grid points")
	cmd.Flags().IntVar(&trades, "trades", 0, "Leading trades to replay (0 replays every trade rather than a fixed count such as 59)")
	cmd.Flags().IntVar(&shuffles, "shuffles", 0, "Average over this many shuffled trade orders")
	return cmd
}

func newEquityCmd() *cobra.Command {
	var riskFree float64
	cmd := &cobra.Command{
		Use:   "equity",
		Short: "Equity curve, drawdown, Sharpe and Sortino of the recorded trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "equity", func(s *common.Session) error {
				if cmd.Flags().Changed("risk-free") {
					s.Config.MonteCarlo.RiskFree = riskFree
				}
				common.Header("Equity Curve")

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}
				rep := montecarlo.AnalyzeEquity(pnl.Values(), s.Config.MonteCarlo.RiskFree)
				s.LogResult("equity", map[string]float64{
					"final_return": rep.FinalReturn,
					"max_drawdown": rep.MaxDrawdown,
					"sharpe":       rep.Sharpe,
					"sortino":      rep.Sortino,
				})
				return common.Wrap(s.Reporter.ReportEquity(rep), errors.ErrorCategoryOutput, "equity", "report")
			})
		},
	}
	cmd.Flags().Float64Var(&riskFree, "risk-free", 0, "Risk-free rate per trade")
	return cmd
}

func newSimulationCmd(samplerName, short string) *cobra.Command {
	var (
		sims     int
		riskFree float64
		noPaths  bool
	)
	use := samplerName
	if samplerName == "permutation" {
		use = "permute"
	}
	cmd := &cobra.Command{
		Use:     use,
		Aliases: []string{samplerName},
		Short:   short + " and measure the simulated equity paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, samplerName, func(s *common.Session) error {
				mc := &s.Config.MonteCarlo
				if cmd.Flags().Changed("sims") {
					mc.Sims = sims
				}
				if cmd.Flags().Changed("risk-free") {
					mc.RiskFree = riskFree
				}
				if noPaths {
					mc.KeepPaths = false
				}
				if err := common.Require(mc.Sims > 0, samplerName, "sims must be positive, got %d", mc.Sims); err != nil {
					return err
				}

				sampler, ok := montecarlo.SamplerByName(samplerName)
				if !ok {
					return errors.NewConfigurationError(samplerName, "sampler", fmt.Sprintf("unknown sampler %q", samplerName))
				}
				common.Header("Monte Carlo " + sampler.Name())

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}

				simCfg := s.Config.SimConfig(sampler)
				common.Progress("Simulating %s paths (seed %d)", common.FormatCount(simCfg.Sims), simCfg.Seed)
				metrics, err := montecarlo.RunSimulations(cmd.Context(), pnl.Values(), simCfg)
				if err != nil {
					return errors.NewSimulationError(samplerName, "simulate", err)
				}
				s.Metrics.RecordPaths(samplerName, len(metrics.FinalReturns), 0)

				for _, m := range montecarlo.Summarize(metrics) {
					s.LogResult(m.Name, map[string]float64{"p5": m.P5, "p95": m.P95, "mean": m.Mean})
				}
				original := montecarlo.CumulativeReturns(pnl.Values())
				return common.Wrap(s.Reporter.ReportSimulations(simCfg, metrics, original), errors.ErrorCategoryOutput, samplerName, "report")
			})
		},
	}
	cmd.Flags().IntVar(&sims, "sims", montecarlo.DefaultSimulations, "Number of simulated paths")
	cmd.Flags().Float64Var(&riskFree, "risk-free", 0, "Risk-free rate per trade")
	cmd.Flags().BoolVar(&noPaths, "no-paths", false, "Do not keep paths (skips the fan chart)")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		steps, sims, pathLength int
		threshold, riskFree     float64
	)
	cmd := &cobra.Command{
		Use:     "sweep",
		Aliases: []string{"combination"},
		Short:   "Simulate a grid of Kelly fractions and compare risk sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "kelly_sweep", func(s *common.Session) error {
				sw := &s.Config.Sweep
				if cmd.Flags().Changed("steps") {
					sw.Steps = steps
				}
				if cmd.Flags().Changed("sims") {
					sw.Sims = sims
				}
				if cmd.Flags().Changed("path-length") {
					sw.PathLength = pathLength
				}
				if cmd.Flags().Changed("threshold") {
					sw.RuinThreshold = threshold
				}
				if cmd.Flags().Changed("risk-free") {
					sw.RiskFree = riskFree
				}

				sweepCfg := s.Config.SweepConfig()
				sweepCfg.Metrics = s.Metrics
				if err := sweepCfg.Validate(); err != nil {
					return errors.WrapError(err, errors.ErrorCategoryValidation, "sweep", "flags")
				}
				common.Header("Kelly Fraction Sweep")

				pnl, err := loadPnL(s)
				if err != nil {
					return err
				}

				common.Progress("%d fractions x %s paths x %d trades (seed %d)",
					sweepCfg.Steps, common.FormatCount(sweepCfg.Sims), sweepCfg.PathLength, sweepCfg.Seed)
				bar := common.NewProgressBar(sweepCfg.Steps, "simulating")
				res, err := montecarlo.RunKellySweep(cmd.Context(), pnl, sweepCfg, bar.Update)
				bar.Finish()
				if err != nil {
					return errors.CategorizeError(err, "sweep", "simulate")
				}
				common.Info("Simulated %s paths in %s", common.FormatCount(res.TotalPaths), common.FormatDuration(res.Elapsed))

				cmp := res.RiskSizeComparison()
				s.LogResult("kelly_sweep", map[string]float64{
					"opt_kelly":      res.OptKelly,
					"van_tharp_risk": cmp.VanTharpRisk,
					"optimal_risk":   cmp.OptimalRisk,
					"risk_ratio":     cmp.RiskRatio,
					"return_ratio":   cmp.ReturnRatio,
					"variance_ratio": cmp.VarianceRatio,
				})
				return common.Wrap(s.Reporter.ReportKellySweep(res), errors.ErrorCategoryOutput, "sweep", "report")
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", montecarlo.DefaultSweepSteps, "Kelly fractions in the grid")
	cmd.Flags().IntVar(&sims, "sims", montecarlo.DefaultSweepSims, "Paths per fraction")
	cmd.Flags().IntVar(&pathLength, "path-length", montecarlo.DefaultPathLength, "Trades per path")
	cmd.Flags().Float64Var(&threshold, "threshold", montecarlo.DefaultRuinThreshold, "Ruin when equity falls to this share of its peak")
	cmd.Flags().Float64Var(&riskFree, "risk-free", 0, "Risk-free rate per trade")
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
