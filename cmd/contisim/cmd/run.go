package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contisim/contisim/cmd/contisim/config"
	"github.com/contisim/contisim/cmd/contisim/report"
	"github.com/contisim/contisim/internal/build"
)

var (
	runStopTime float64
	runCINT     int
	runReport   string
)

var runCmd = &cobra.Command{
	Use:   "run <model-file>",
	Short: "Build a model and run its simulation, printing the CINT-grid result table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(args[0])
	},
}

func init() {
	cfg, err := config.Load()
	defaultStop, defaultReport := 10.0, ""
	if err == nil && cfg != nil {
		defaultStop = cfg.Run.StopTime
		defaultReport = strings.Join(cfg.Run.Report, ",")
	}
	runCmd.Flags().Float64Var(&runStopTime, "stop", defaultStop, "simulation stop time")
	runCmd.Flags().IntVar(&runCINT, "cint", 0, "override the communication interval (0 = use the model's own setting)")
	runCmd.Flags().StringVar(&runReport, "report", defaultReport, "comma-separated variable names to report, in addition to every state variable")
	rootCmd.AddCommand(runCmd)
}

func runRun(filename string) error {
	if err := validateFilePath(filename); err != nil {
		return fmt.Errorf("invalid file: %w", err)
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	builder, err := loadModel(string(content))
	if err != nil {
		return err
	}

	cfg := build.Config{StopTime: runStopTime, ReportVars: splitReport(runReport)}
	if runCINT > 0 {
		cfg.CINT = runCINT
		cfg.CINTSet = true
	}

	artifact, err := builder.Build(cfg)
	if err != nil {
		return fmt.Errorf("build error: %w", err)
	}

	result, err := artifact.Driver.Run()
	if err != nil {
		return fmt.Errorf("simulation error: %w", err)
	}

	precision := 4
	var styles config.Styles
	if appCfg, loadErr := config.Load(); loadErr == nil && appCfg != nil {
		precision = appCfg.Table.Precision
		styles = config.GetStyles()
	}
	report.Render(os.Stdout, result, precision, styles)
	return nil
}

func splitReport(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
