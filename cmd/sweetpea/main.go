package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sweetpea-org/sweetpea-go"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "sweetpea",
		Short: "sweetpea",
		Long:  `A command-line tool to synthesize trial sequences for randomized factorial experiment designs.`,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				log.SetLevel(log.DebugLevel)
				sweetpea.Log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newSynthesizeCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML file with run parameters (samples, strategy, out)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSynthesizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "synthesize",
		Short: "Compile the built-in demonstration design and synthesize trial sequences",
		RunE:  synthesizeFunc,
	}
}

func synthesizeFunc(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	block, err := demoBlock()
	if err != nil {
		return err
	}
	log.WithField("trials", block.TrialCount()).Info("sweetpea: block compiled")

	strategy, err := resolveStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	trials, err := sweetpea.SynthesizeTrials(context.Background(), block, cfg.Samples, strategy)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(trials, "", "  ")
	if err != nil {
		return err
	}

	if cfg.Out == "" {
		fmt.Println(string(out))
		return nil
	}
	return os.WriteFile(cfg.Out, out, 0644)
}

func resolveStrategy(name string) (sweetpea.Strategy, error) {
	switch name {
	case "", "non-uniform":
		return sweetpea.NonUniformStrategy, nil
	case "guided":
		return sweetpea.GuidedStrategy, nil
	default:
		return nil, fmt.Errorf("sweetpea: unknown strategy %q (want non-uniform or guided)", name)
	}
}

// demoBlock builds a small 2x2 fully-crossed design (color and text
// factors, with a congruency factor derived from them) as a
// self-contained demonstration of the public API, grounded on the
// congruency acceptance scenario this compiler's tests exercise.
func demoBlock() (*sweetpea.Block, error) {
	red := sweetpea.NewSimpleLevel("red")
	blue := sweetpea.NewSimpleLevel("blue")
	color, err := sweetpea.NewFactor("color", red, blue)
	if err != nil {
		return nil, err
	}

	wordRed := sweetpea.NewSimpleLevel("red")
	wordBlue := sweetpea.NewSimpleLevel("blue")
	text, err := sweetpea.NewFactor("text", wordRed, wordBlue)
	if err != nil {
		return nil, err
	}

	congruentDerivation, err := sweetpea.WithinTrial(func(levels []*sweetpea.Level) bool {
		return levels[0].Name == levels[1].Name
	}, []*sweetpea.Factor{color, text})
	if err != nil {
		return nil, err
	}
	incongruentDerivation, err := sweetpea.WithinTrial(func(levels []*sweetpea.Level) bool {
		return levels[0].Name != levels[1].Name
	}, []*sweetpea.Factor{color, text})
	if err != nil {
		return nil, err
	}

	congruent := sweetpea.NewDerivedLevel("congruent", congruentDerivation)
	incongruent := sweetpea.NewDerivedLevel("incongruent", incongruentDerivation)
	congruency, err := sweetpea.NewFactor("congruency", congruent, incongruent)
	if err != nil {
		return nil, err
	}

	return sweetpea.NewBlock(
		[]*sweetpea.Factor{color, text, congruency},
		sweetpea.FullyCrossed(color, text),
	)
}
