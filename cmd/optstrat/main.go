// Command optstrat is a demonstration CLI around the combination scoring
// engine: it loads a scenario file (option universe + constraint set +
// scoring profiles), runs one round, and prints the resulting rankings.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/optionstrat/engine/internal/applog"
)

var (
	logLevel string
	logger   zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "optstrat",
		Short: "Evaluate and rank multi-leg option combinations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			pretty := isTerminal(os.Stdout)
			logger = applog.New(nil, pretty).Level(level)
			log.Logger = logger
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(), newValidateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
