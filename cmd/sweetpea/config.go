package main

import (
	"os"

	"gopkg.in/yaml.v2"
)

// runConfig is the optional YAML configuration file this CLI accepts via
// --config: the design itself (factors, derivations, crossing) is Go code
// by necessity (predicates are functions), but the run parameters around
// it — how many samples to draw, which strategy, where to write them —
// are plain data and so are exposed as YAML rather than flags alone.
type runConfig struct {
	Samples  int    `yaml:"samples"`
	Strategy string `yaml:"strategy"`
	Out      string `yaml:"out"`
}

func defaultConfig() runConfig {
	return runConfig{Samples: 1, Strategy: "non-uniform", Out: ""}
}

func loadConfig(path string) (runConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
