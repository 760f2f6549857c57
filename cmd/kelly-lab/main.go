package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sizing-lab/cmd/common"
)

const appName = "kelly-lab"

var (
	globalFlags *common.GlobalFlags
	pnlFile     string
	pnlColumn   string
)

// newRootCmd builds the command tree. Every call rebinds the package level
// flag variables.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Kelly position sizing and Monte Carlo analyses of a trade PnL series",
		Long: `kelly-lab reads the PnL column of a trade log and answers one sizing
question per subcommand: the Thorp and betting Kelly fractions, the fixed
fractional optimum, equity statistics, resampled equity paths and the
Kelly fraction sweep.`,
		Version:       common.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globalFlags = common.RegisterGlobalFlags(rootCmd)
	rootCmd.PersistentFlags().StringVar(&pnlFile, "pnl", "", "Trade log CSV (default from config)")
	rootCmd.PersistentFlags().StringVar(&pnlColumn, "column", "", "PnL column name (default from config)")

	rootCmd.AddCommand(
		newThorpCmd(),
		newBettingCmd(),
		newFixedFractionCmd(),
		newEquityCmd(),
		newSimulationCmd("bootstrap", "Resample trades with replacement"),
		newSimulationCmd("permutation", "Shuffle the trade order"),
		newSweepCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func main() {
	os.Exit(common.Execute(newRootCmd()))
}
