package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent-pro/internal/app"
	"github.com/ocragent/ocr-agent-pro/internal/chunking"
	"github.com/ocragent/ocr-agent-pro/internal/config"
	"github.com/ocragent/ocr-agent-pro/internal/extract"
	"github.com/ocragent/ocr-agent-pro/internal/search"
)

func (c *cli) newSearchCmd() *cobra.Command {
	var (
		topK        int
		minScore    float64
		documentIDs []string
		asContext   bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find the chunks most similar to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			q := search.Query{
				Text:        strings.Join(args, " "),
				TopK:        topK,
				DocumentIDs: documentIDs,
			}
			if cmd.Flags().Changed("min-score") {
				q.MinScore = &minScore
			}

			if asContext {
				block, resp, err := a.Search.Context(cmd.Context(), q)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n\n", block.Text)
				printf(cmd, "%s\n", faint("tokens: ", block.Tokens, "  sources: ", block.SourceCoverage,
					"  retrieval_ms: ", resp.RetrievalMs))
				return nil
			}

			resp, err := a.Search.Search(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(resp.Results) == 0 {
				printf(cmd, "No matching chunks found.\n")
				return nil
			}
			for i, r := range resp.Results {
				printf(cmd, "%s %s %s\n", heading(i+1, "."), success(formatScore(r.Score)), heading(r.DocumentName))
				printf(cmd, "   %s\n", faint("document ", r.DocumentID, " chunk ", r.Index))
				printf(cmd, "   %s\n\n", r.Content)
			}
			printf(cmd, "%s\n", faint(len(resp.Results), " of ", resp.Candidates, " chunks in ", resp.RetrievalMs, "ms"))
			return nil
		}),
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to return (default SEARCH_TOP_K)")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Drop chunks scoring below this similarity")
	cmd.Flags().StringSliceVar(&documentIDs, "document", nil, "Restrict the search to these document IDs")
	cmd.Flags().BoolVar(&asContext, "context", false, "Print the formatted CONTEXT block instead of a result list")
	return cmd
}

func newChunkCmd() *cobra.Command {
	var (
		size    int
		overlap int
	)

	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Print the chunks a file would be split into",
		Long:  "Splits a .txt, .md or .pdf file (or stdin when the file is \"-\") and prints each chunk with its character offsets.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("size") {
				size = cfg.ChunkSize
			}
			if !cmd.Flags().Changed("overlap") {
				overlap = cfg.ChunkOverlap
			}

			var text string
			if args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			} else {
				ex, err := extract.FromFile(args[0])
				if err != nil {
					return err
				}
				text = ex.Text
			}

			chunks := chunking.New(size, overlap).Split(text)
			for _, ch := range chunks {
				printf(cmd, "%s %s\n", heading("[", ch.Index, "]"), faint(ch.StartChar, "-", ch.EndChar))
				printf(cmd, "%s\n\n", ch.Text)
			}
			printf(cmd, "%s\n", faint(len(chunks), " chunks"))
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", chunking.DefaultChunkSize, "Target chunk size in characters (default CHUNK_SIZE)")
	cmd.Flags().IntVar(&overlap, "overlap", chunking.DefaultOverlap, "Characters carried into the next chunk (default CHUNK_OVERLAP)")
	return cmd
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 3, 64)
}
