package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/cmd/common"
)

const appName = "ratio-lab"

var (
	globalFlags *common.GlobalFlags
	pairFlags   struct {
		ticker, base string
		start, end   string
	}
)

// newRootCmd builds the command tree. Every call rebinds the package level
// flag variables.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "RSI rotation backtests on the price ratio of two tickers",
		Long: `ratio-lab holds a ticker while the RSI of its price ratio to a base
ticker recovers from oversold, and sweeps the thresholds and lookback of that
rule for the best annualised Sharpe ratio.`,
		Version:       common.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globalFlags = common.RegisterGlobalFlags(rootCmd)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&pairFlags.ticker, "ticker", "", "Traded ticker (default from config)")
	pf.StringVar(&pairFlags.base, "base", "", "Base ticker of the ratio (default from config)")
	pf.StringVar(&pairFlags.start, "start", "", "First date to include")
	pf.StringVar(&pairFlags.end, "end", "", "Last date to include")

	rootCmd.AddCommand(
		newBacktestCmd(),
		newSweepCmd(sweepLower),
		newSweepCmd(sweepUpper),
		newSweepCmd(sweepLookback),
		newHeatmapCmd(),
		newFetchCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	os.Exit(common.Execute(newRootCmd()))
}
