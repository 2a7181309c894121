package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"avsser/internal/batch"
	"avsser/internal/extract"
	"avsser/internal/logging"
	"avsser/internal/media/container"
	"avsser/internal/preflight"
	"avsser/internal/services"
	"avsser/internal/services/mkvtoolnix"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var logLevel string
	var flags batchFlags

	ctx := newCommandContext(&configFlag, &logLevel)

	rootCmd := &cobra.Command{
		Use:           "avsser [flags] INPUT...",
		Short:         "Generate AviSynth and VapourSynth scripts for media files",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runBatch(cmd, ctx, &flags, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	flags.register(rootCmd.Flags())

	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func runBatch(cmd *cobra.Command, ctx *commandContext, flags *batchFlags, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd.Flags(), cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger, undo, err := ctx.newLogger(cfg)
	if err != nil {
		return err
	}
	defer undo()

	if failed := preflight.Failed(preflight.RunAll(cfg, false)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", failed[0].Name, failed[0].Detail, nil)
	}

	client, err := mkvtoolnix.New(cfg.Tools.Mkvmerge, cfg.Tools.Mkvextract)
	if err != nil {
		return err
	}
	var extractor *extract.Extractor
	if cfg.Script.ExtractSubtitles {
		gate := extract.NewOverwriteGate(cfg.Batch.Overwrite, newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()), logger)
		extractor = extract.New(client, gate, logger)
	}

	runner, err := batch.New(cfg, container.NewMkvProber(client, container.WithChapterReader(client)), extractor, logger)
	if err != nil {
		return err
	}
	summary, runErr := runner.Run(cmd.Context(), args)
	if summary != nil && len(summary.Files) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary))
	}
	if runErr != nil {
		return runErr
	}
	if err := summary.Err(); err != nil {
		logging.WithContext(cmd.Context(), logger).Debug("batch completed with failures", logging.Error(err))
		return err
	}
	return nil
}

func renderSummary(summary *batch.Summary) string {
	rows := make([][]string, 0, len(summary.Files))
	for _, file := range summary.Files {
		group := ""
		if file.GroupSize > 1 {
			group = fmt.Sprintf("%s (%d/%d)", filepath.Base(file.Group), file.Ordinal, file.GroupSize)
		}
		rows = append(rows, []string{
			filepath.Base(file.Input),
			string(file.Kind),
			group,
			string(file.Status),
			summaryDetail(file),
		})
	}
	footer := []string{
		strconv.Itoa(len(summary.Files)) + " files",
		"",
		strconv.Itoa(summary.Groups) + " groups",
		fmt.Sprintf("%d written, %d skipped, %d failed",
			summary.Count(batch.StatusWritten),
			summary.Count(batch.StatusSkipped),
			summary.Count(batch.StatusFailed),
		),
		"",
	}
	return renderTable(tableSpec{
		columns: []column{
			{header: "File"},
			{header: "Kind"},
			{header: "Group"},
			{header: "Status"},
			{header: "Detail", maxWidth: 80},
		},
		rows:   rows,
		footer: footer,
	})
}

func summaryDetail(file batch.FileResult) string {
	switch file.Status {
	case batch.StatusWritten:
		return file.Script
	case batch.StatusFailed:
		msg := "unknown error"
		if file.Err != nil {
			msg = file.Err.Error()
		}
		return file.Class + ": " + firstLine(msg)
	default:
		return file.Reason
	}
}

func firstLine(s string) string {
	if line, _, ok := strings.Cut(s, "\n"); ok {
		return line
	}
	return s
}
