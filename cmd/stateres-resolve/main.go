// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command stateres-resolve runs the state-resolution algorithm over a
// YAML-described scenario and prints the resolved state map, for manual
// inspection of a fixture outside the test suite.
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/luxfi/stateres/authz"
	"github.com/luxfi/stateres/config"
	"github.com/luxfi/stateres/internal/fixture"
	"github.com/luxfi/stateres/internal/logctx"
	"github.com/luxfi/stateres/internal/metrics"
	"github.com/luxfi/stateres/resolve"
)

var rootCmd = &cobra.Command{
	Use:   "stateres-resolve",
	Short: "Resolve a YAML-described event graph's conflicting state",
	Long: `stateres-resolve loads a scenario file describing a pool of events
and two or more candidate state sets, runs the state-resolution algorithm
over them, and prints the resulting state map. It also reports any mismatch
against the scenario's expected result, if one is given.`,
}

func main() {
	rootCmd.AddCommand(resolveCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func resolveCmd() *cobra.Command {
	var (
		budget  int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <scenario.yaml>",
		Short: "Resolve a scenario file and print the resulting state map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args[0], budget, verbose)
		},
	}

	cmd.Flags().IntVar(&budget, "traversal-budget", config.DefaultParameters.TraversalBudget, "max events an auth chain walk may visit")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log each resolution stage")
	return cmd
}

func runResolve(path string, budget int, verbose bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scenario: %w", err)
	}

	scenario, err := fixture.Parse(data)
	if err != nil {
		return err
	}

	lu, stateSets, expected, err := fixture.Build(scenario)
	if err != nil {
		return err
	}

	params := config.Parameters{TraversalBudget: budget, Verbose: verbose}
	if err := params.Valid(); err != nil {
		return err
	}

	opts := resolve.Options{TraversalBudget: params.TraversalBudget}
	if params.Verbose {
		opts.Logger = logctx.New("stateres-resolve")
	}

	m, err := metrics.New("stateres_resolve_cli", prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("build metrics: %w", err)
	}
	opts.Metrics = m

	resolved, err := resolve.ResolveWithOptions(stateSets, lu, authz.Reference{}, opts)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", scenario.Name, err)
	}

	fmt.Printf("resolved %d keys for scenario %q:\n", len(resolved), scenario.Name)
	for k, v := range resolved {
		name := k.Type
		if k.StateKey != "" {
			name = k.Type + "/" + k.StateKey
		}
		fmt.Printf("  %-40s -> %s\n", name, v)
	}

	if len(expected) == 0 {
		return nil
	}
	mismatches := fixture.Diff(expected, resolved)
	if len(mismatches) == 0 {
		fmt.Println("matches expected result")
		return nil
	}
	fmt.Printf("%d mismatch(es) against expected result:\n", len(mismatches))
	for k, pair := range mismatches {
		fmt.Printf("  %s: want %s, got %s\n", k.Type, pair[0], pair[1])
	}
	return fmt.Errorf("resolved state does not match expected result")
}
