package main

import (
	"fmt"
	"os"

	yaml3 "gopkg.in/yaml.v3"

	"github.com/optionstrat/engine/internal/config"
	"github.com/optionstrat/engine/internal/constraints"
	"github.com/optionstrat/engine/internal/optionmodel"
)

// scenarioFile is the on-disk shape a demo run reads: a full option
// universe plus round parameters, all in one document for convenience.
type scenarioFile struct {
	Options     []optionmodel.OptionRecord `yaml:"options"`
	Grid        []float64                  `yaml:"grid"`
	Measure     []float64                  `yaml:"measure"`
	AverageMix  float64                    `yaml:"average_mix"`
	MaxLegs     int                        `yaml:"max_legs"`
	TopR        int                        `yaml:"top_r"`
	Constraint  constraints.Set            `yaml:"constraint"`
	Profiles    []config.ProfileSpec       `yaml:"profiles"`
}

func loadScenario(path string) (*scenarioFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var sc scenarioFile
	if err := yaml3.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	return &sc, nil
}

func (sc *scenarioFile) resolveProfiles() ([]optionmodel.ScoringProfile, error) {
	profiles := make([]optionmodel.ScoringProfile, 0, len(sc.Profiles))
	for _, spec := range sc.Profiles {
		p, err := config.ResolveProfile(spec)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (sc *scenarioFile) validate() error {
	if len(sc.Options) == 0 {
		return fmt.Errorf("scenario has no options")
	}
	if len(sc.Grid) == 0 {
		return fmt.Errorf("scenario has no price grid")
	}
	if len(sc.Measure) != len(sc.Grid) {
		return fmt.Errorf("measure length %d does not match grid length %d", len(sc.Measure), len(sc.Grid))
	}
	if sc.MaxLegs <= 0 {
		return fmt.Errorf("max_legs must be positive")
	}
	if sc.TopR <= 0 {
		return fmt.Errorf("top_r must be positive")
	}
	if len(sc.Profiles) == 0 {
		return fmt.Errorf("scenario defines no scoring profiles")
	}
	return nil
}
