package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent-pro/internal/app"
	"github.com/ocragent/ocr-agent-pro/internal/embedding"
	"github.com/ocragent/ocr-agent-pro/internal/storage"
)

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show document counts, chunk count and embedding mode",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			status, err := a.Search.Status(cmd.Context())
			if err != nil {
				return err
			}

			printf(cmd, "%s\n", heading("Documents"))
			for _, s := range []storage.Status{
				storage.StatusPending,
				storage.StatusProcessing,
				storage.StatusCompleted,
				storage.StatusFailed,
			} {
				printf(cmd, "  %-11s %d\n", s, status.Documents[s])
			}
			printf(cmd, "  %-11s %d\n", "total", status.TotalDocuments)
			printf(cmd, "%s %d\n", heading("Chunks"), status.Chunks)
			printf(cmd, "%s %s\n", heading("Embedding"), modeLabel(status.EmbeddingMode))
			return nil
		}),
	}
}

func (c *cli) newDocumentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored documents, newest first",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			docs, err := a.Store.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range docs {
				label := string(d.Status)
				switch d.Status {
				case storage.StatusCompleted:
					label = success(label)
				case storage.StatusFailed:
					label = failure(label)
				}
				printf(cmd, "%s  %-10s %4d chunks  %s\n", faint(d.ID), label, d.ChunkCount, d.Name)
			}
			printf(cmd, "%s\n", faint(len(docs), " documents"))
			return nil
		}),
	}
}

func (c *cli) newModelInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model-info",
		Short: "Describe the embedding model, loading it if needed",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			out := map[string]any{
				"mode":                a.Embedder.Mode(),
				"embedding_dimension": a.Embedder.Dimension(),
			}
			if info := a.Embedder.ModelInfo(); info != nil {
				out["model"] = info
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}),
	}
}

func modeLabel(mode embedding.Mode) string {
	if mode == embedding.ModeFallback {
		return failure(string(mode))
	}
	return success(string(mode))
}
