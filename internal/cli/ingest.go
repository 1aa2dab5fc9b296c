package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/live-vocabulary/internal/ingestion"
)

func newIngestCommand(opts *options) *cobra.Command {
	var batch bool
	cmd := &cobra.Command{
		Use:   "ingest [flags] FILE...",
		Short: "Ingest files as documents",
		Long: `Ingest reads each FILE as one document ("-" reads stdin). By default every
file is a separate update; with --batch all files form one batch update.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]string, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}

			_, a, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var reqs []*ingestion.IngestRequest
			if batch {
				reqs = append(reqs, &ingestion.IngestRequest{Documents: docs})
			} else {
				for _, d := range docs {
					reqs = append(reqs, &ingestion.IngestRequest{Document: d})
				}
			}

			for i, req := range reqs {
				resp, err := a.Service.Ingest(cmd.Context(), ingestion.SourceCLI, req)
				if err != nil {
					return fmt.Errorf("ingesting %s: %w", requestLabel(args, i, batch), err)
				}
				if err := printIngest(cmd.OutOrStdout(), opts.output, requestLabel(args, i, batch), resp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&batch, "batch", false, "ingest all files as one batch")
	return cmd
}

func readDocument(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func requestLabel(args []string, i int, batch bool) string {
	if batch {
		return fmt.Sprintf("batch of %d", len(args))
	}
	return args[i]
}

func printIngest(w io.Writer, output, label string, resp *ingestion.IngestResponse) error {
	if output == OutputJSON {
		return writeJSON(w, resp)
	}
	words := make([]string, 0, len(resp.NewWords))
	for word := range resp.NewWords {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool { return resp.NewWords[words[i]] < resp.NewWords[words[j]] })

	fmt.Fprintf(w, "%s: status=%s documents=%d new_words=%d\n", label, resp.Status, resp.Documents, len(words))
	for _, word := range words {
		fmt.Fprintf(w, "  %d\t%s\n", resp.NewWords[word], word)
	}
	return nil
}
