package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/watcher"
)

func newWatchCommand(opts *options) *cobra.Command {
	var extensions []string
	cmd := &cobra.Command{
		Use:   "watch [flags] DIR",
		Short: "Ingest files as they appear in a directory",
		Long: `Watch ingests every file created or written in DIR once it has stopped
changing for watch.settle. Stop with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, a, err := opts.open(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("ext") {
				extensions = cfg.Watch.Extensions
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s (Ctrl+C to stop)\n", args[0])
			return watcher.New(args[0], extensions, cfg.Watch.Settle, a.Service).Run(ctx)
		},
	}
	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "file extensions to ingest (default watch.extensions)")
	return cmd
}
