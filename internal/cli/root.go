// Package cli implements vocabctl, a command line front end that feeds
// documents into the vocabularies and inspects them. It works directly
// against the configured store, so the memory backend only lives for one
// invocation.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/app"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/pkg/logger"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

type options struct {
	configPath string
	output     string
	logLevel   string
}

// NewRootCommand creates the vocabctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "vocabctl",
		Short: "Feed and inspect the live vocabularies",
		Long: `vocabctl ingests documents into the count and weight vocabularies and
reports on their contents, using the same store configuration as vocabd.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case OutputText, OutputJSON:
			default:
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", OutputText, "output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(newIngestCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newStatsCommand(opts))
	rootCmd.AddCommand(newWordsCommand(opts))
	rootCmd.AddCommand(newKeygenCommand(opts))

	return rootCmd
}

// open loads the config, routes logs to stderr and builds the app.
func (o *options) open(ctx context.Context, cmd *cobra.Command) (*config.Config, *app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger.SetupWriter(cmd.ErrOrStderr(), level, "text")

	a, err := app.New(ctx, cfg, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
