package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	contisim "github.com/contisim/contisim"
	"github.com/contisim/contisim/internal/build"
)

var buildCmd = &cobra.Command{
	Use:   "build <model-file>",
	Short: "Parse and build a model, reporting its resolved integration settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(args[0])
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(filename string) error {
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

	// The build command only reports resolved settings; the actual stop
	// time and report set only matter once the simulation is run.
	artifact, err := builder.Build(build.Config{})
	if err != nil {
		return fmt.Errorf("build error: %w", err)
	}

	fmt.Printf("build %s\n", artifact.ID)
	fmt.Printf("  algorithm:      %s\n", intAlgName(artifact.Settings.IALG))
	fmt.Printf("  step sub-count: %d\n", artifact.Settings.NSTP)
	fmt.Printf("  max step:       %v\n", artifact.Settings.MAXT)
	fmt.Printf("  comm interval:  %d\n", artifact.Settings.CINT)
	return nil
}

func intAlgName(ialg int) string {
	switch ialg {
	case 5:
		return "Runge-Kutta (fourth order)"
	default:
		return fmt.Sprintf("IALG %d", ialg)
	}
}

func loadModel(src string) (*contisim.Builder, error) {
	b := contisim.NewBuilder()
	for _, chunk := range contisim.SplitSections(src) {
		if len(chunk) == 0 {
			continue
		}
		if err := b.AddSection(chunk); err != nil {
			return nil, fmt.Errorf("parsing model: %w", err)
		}
	}
	return b, nil
}
