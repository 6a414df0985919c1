// Package main provides the ocragent CLI for ingesting and searching documents.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ocragent/ocr-agent-pro/internal/app"
	"github.com/ocragent/ocr-agent-pro/internal/config"
	"github.com/ocragent/ocr-agent-pro/internal/logging"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	heading = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

type cli struct {
	logFormat string
	noLLM     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "ocragent",
		Short:         "OCR Agent Pro chunk and retrieve tool",
		Long:          "Ingest extracted document text, embed it, and search it by semantic similarity.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", "", "Log format: text, json or pretty (overrides LOG_FORMAT)")
	root.PersistentFlags().BoolVar(&c.noLLM, "no-llm", false, "Skip LLM document classification")

	root.AddCommand(
		c.newIngestCmd(),
		c.newSyncCmd(),
		c.newSearchCmd(),
		newChunkCmd(),
		c.newStatusCmd(),
		c.newDocumentsCmd(),
		c.newModelInfoCmd(),
		c.newReprocessCmd(),
	)
	return root
}

// withApp loads the configuration, wires the services and closes them after
// fn returns.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if c.logFormat != "" {
			cfg.LogFormat = c.logFormat
		}
		if c.noLLM {
			cfg.LLMModel = ""
		}

		logger := logging.New(
			logging.WithLevel(logging.ParseLevel(cfg.LogLevel)),
			logging.WithJSON(cfg.LogFormat == "json"),
			logging.WithPretty(cfg.LogFormat == "pretty"),
			logging.WithWriter(cmd.ErrOrStderr()),
		)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				logger.Warn("Failed to close storage", "error", err)
			}
		}()

		return fn(cmd, args, a)
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
