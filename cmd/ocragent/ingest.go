package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent-pro/internal/app"
	"github.com/ocragent/ocr-agent-pro/internal/extract"
	"github.com/ocragent/ocr-agent-pro/internal/indexer"
)

func (c *cli) newIngestCmd() *cobra.Command {
	var (
		docType    string
		subject    string
		classLevel string
	)

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Extract, chunk, embed and store documents",
		Long: `Reads each file (.txt, .md or .pdf), extracts its text and indexes it.

Classification fields given as flags apply to every file; missing fields are
filled by the LLM classifier unless --no-llm is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			failed := 0
			for _, path := range args {
				ex, err := extract.FromFile(path)
				if err != nil {
					failed++
					printf(cmd, "%s %s: %v\n", failure("✗"), path, err)
					continue
				}

				res, err := a.Pipeline.Ingest(cmd.Context(), indexer.IngestRequest{
					Name:         ex.Name,
					Filename:     ex.Name,
					MimeType:     ex.MimeType,
					Text:         ex.Text,
					OCRMethod:    ex.Method,
					Headings:     ex.Headings,
					DocumentType: docType,
					Subject:      subject,
					ClassLevel:   classLevel,
				})
				if err != nil {
					failed++
					printf(cmd, "%s %s: %v\n", failure("✗"), path, err)
					continue
				}
				printf(cmd, "%s %s %s (%d chunks, %s)\n",
					success("✓"), path, faint(res.DocumentID), res.Chunks, res.Duration.Round(time.Millisecond))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&docType, "type", "", "Document type: curriculum, textbook or progression")
	cmd.Flags().StringVar(&subject, "subject", "", "School subject")
	cmd.Flags().StringVar(&classLevel, "class-level", "", "Class level, e.g. Form 4")
	return cmd
}

func (c *cli) newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Index every supported document from a GitHub repository",
		Long: `Walks GITHUB_PATH in GITHUB_OWNER/GITHUB_REPO and indexes every .txt, .md
and .pdf file. Documents synced before are re-indexed in place.

Environment variables:
  GITHUB_OWNER   Repository owner (required)
  GITHUB_REPO    Repository name (required)
  GITHUB_PATH    Directory to index (default: repository root)
  GITHUB_TOKEN   GitHub token for higher rate limits (optional)`,
		Args: cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			start := time.Now()

			fetcher, err := a.NewFetcher()
			if err != nil {
				return err
			}

			printf(cmd, "Syncing %s...\n\n", fetcher.Repository())
			result, err := a.Pipeline.IndexAll(cmd.Context(), fetcher)
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			printf(cmd, "%s\n", heading("Sync complete!"))
			printf(cmd, "  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
			printf(cmd, "  Chunks: %d\n", result.TotalChunks)
			printf(cmd, "  Duration: %s\n", result.Duration.Round(time.Second))
			printf(cmd, "  Revision: %s\n", result.Revision)

			if len(result.FailedDocs) > 0 {
				printf(cmd, "\n%s\n", failure("Failed documents:"))
				for _, failed := range result.FailedDocs {
					printf(cmd, "  - %s: %s\n", failed.Path, failed.Reason)
				}
			}

			printf(cmd, "\nTotal time: %s\n", time.Since(start).Round(time.Second))
			return nil
		}),
	}
}

func (c *cli) newReprocessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <document-id>...",
		Short: "Re-chunk and re-embed stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			for _, id := range args {
				res, err := a.Pipeline.Reprocess(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("reprocess %s: %w", id, err)
				}
				printf(cmd, "%s %s (%d chunks)\n", success("✓"), id, res.Chunks)
			}
			return nil
		}),
	}
}
