package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/optionstrat/engine/internal/constraints"
	"github.com/optionstrat/engine/internal/engine"
	"github.com/optionstrat/engine/internal/metrics"
	"github.com/optionstrat/engine/internal/optioncache"
	"github.com/optionstrat/engine/internal/optionmodel"
)

func newRunCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one evaluation round from a scenario file and print its rankings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(scenarioPath)
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to a scenario YAML file")
	cmd.MarkFlagRequired("scenario")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			if err := sc.validate(); err != nil {
				return err
			}
			if _, err := sc.resolveProfiles(); err != nil {
				return err
			}
			fmt.Println("scenario is valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "path to a scenario YAML file")
	cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(path string) error {
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}
	if err := sc.validate(); err != nil {
		return err
	}
	profiles, err := sc.resolveProfiles()
	if err != nil {
		return err
	}

	cache := optioncache.New()
	measure := optionmodel.Measure{Mixture: sc.Measure, AverageMix: sc.AverageMix}
	if err := cache.Initialize(sc.Options, sc.Grid, measure, sc.AverageMix); err != nil {
		return err
	}

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	orch := engine.New(cache).WithMetrics(reg)
	result, err := orch.Run(context.Background(), engine.Request{
		MaxLegs:    sc.MaxLegs,
		Constraint: sc.Constraint,
		Profiles:   profiles,
		TopR:       sc.TopR,
	})
	if err != nil {
		return err
	}

	printResult(result)
	fmt.Printf("filters triggered: %s\n", summarizeFilterCounters(result.FilterCounters))
	return nil
}

func printResult(result *engine.Result) {
	fmt.Printf("candidates evaluated: %d  weight sets: %d  duration: %s\n",
		result.NCandidates, result.NWeightSets, result.Duration)

	for name, ranking := range result.ProfileRankings {
		fmt.Printf("\nprofile %q:\n", name)
		printRanking(ranking)
	}

	fmt.Println("\nconsensus:")
	printRanking(result.ConsensusRanking)
}

func summarizeFilterCounters(c constraints.Counters) string {
	var s string
	for id := constraints.FilterID(0); id < constraints.FilterCount; id++ {
		if c[id] > 0 {
			s += fmt.Sprintf("%s=%d ", id, c[id])
		}
	}
	if s == "" {
		return "none"
	}
	return s
}

func printRanking(ranking []engine.RankedCandidate) {
	for _, r := range ranking {
		fmt.Printf("  #%-3d score=%.4f legs=%d premium=%.2f delta=%.4f max_loss=%.2f\n",
			r.Rank, r.Score, len(r.Candidate.Indices), r.Candidate.TotalPremium,
			r.Candidate.TotalDelta, r.Candidate.MaxLoss)
	}
}
