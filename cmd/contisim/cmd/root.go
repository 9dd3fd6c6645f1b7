package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "contisim",
	Short: "contisim - a continuous-simulation modeling language build pipeline",
	Long: `contisim compiles ACSL-style continuous-simulation models (INITIAL,
DYNAMIC, DERIVATIVE, DISCRETE, TERMINAL sections) and runs them with a
fixed-step Runge-Kutta integrator.

Examples:
  contisim build model.acsl              Compile a model and report its settings
  contisim run model.acsl --stop 10      Build and run a model, printing the result table`,
	Args: cobra.NoArgs,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
