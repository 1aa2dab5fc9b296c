package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion/service"
)

func newStatsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vocabulary sizes and persistence states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			stats := a.Service.Stats()
			w := cmd.OutOrStdout()
			if opts.output == OutputJSON {
				return writeJSON(w, stats)
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "VOCABULARY\tCOLLECTION\tWORDS\tSTATE\n")
			fmt.Fprintf(tw, "count\t%s\t%d\t%s\n", stats.CountCollection, stats.CountWords, stats.CountState)
			fmt.Fprintf(tw, "weight\t%s\t%d\t%s\n", stats.WeightCollection, stats.WeightWords, stats.WeightState)
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "documents: %d\n", stats.Documents)
			return nil
		},
	}
}

func newWordsCommand(opts *options) *cobra.Command {
	var (
		mode  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "words",
		Short: "List vocabulary words",
		Long: `Words lists the count vocabulary by ascending id, or the weight vocabulary
by descending weight.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Service.Words(mode, limit)
			if err != nil {
				return err
			}
			if opts.output == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			return printWords(cmd.OutOrStdout(), mode, entries)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", service.ModeCount, "vocabulary to list (count, weight)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum words to list (0 for all)")
	return cmd
}

func printWords(w io.Writer, mode string, entries []ingestion.WordEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if mode == service.ModeCount {
		fmt.Fprintf(tw, "ID\tWORD\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%d\t%s\n", *e.ID, e.Word)
		}
	} else {
		fmt.Fprintf(tw, "WORD\tWEIGHT\tDF\n")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%.6f\t%d\n", e.Word, e.Weight, e.DocumentFrequency)
		}
	}
	return tw.Flush()
}
