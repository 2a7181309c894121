package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"avsser/internal/language"
	"avsser/internal/media/container"
	"avsser/internal/media/source"
	"avsser/internal/pathres"
	"avsser/internal/services/mkvtoolnix"
)

var errProbeFailed = errors.New("one or more files could not be probed")

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show the tracks, fonts and segment linkage avsser sees in each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := mkvtoolnix.New(cfg.Tools.Mkvmerge, cfg.Tools.Mkvextract)
			if err != nil {
				return err
			}
			prober := container.NewMkvProber(client, container.WithChapterReader(client))

			out := cmd.OutOrStdout()
			failed := false
			for _, arg := range args {
				path, err := pathres.Canonical(arg)
				if err != nil {
					return err
				}
				class, err := source.Classify(path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", arg, err)
					failed = true
					continue
				}
				fmt.Fprintf(out, "%s\n  kind: %s", path, class.Kind)
				if class.Index != source.IndexNone {
					fmt.Fprintf(out, " (%s index)", class.Index)
				}
				if class.Sniffed {
					fmt.Fprint(out, " (detected from content)")
				}
				fmt.Fprintln(out)
				if class.Kind != source.Tracks {
					continue
				}

				meta, err := prober.Probe(cmd.Context(), path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", arg, err)
					failed = true
					continue
				}
				printMetadata(out, meta)
			}
			if failed {
				return errProbeFailed
			}
			return nil
		},
	}
}

func printMetadata(out io.Writer, meta *container.Metadata) {
	if meta.Title != "" {
		fmt.Fprintf(out, "  title: %s\n", meta.Title)
	}
	if meta.Linkage.HasSegment() {
		fmt.Fprintf(out, "  segment: %s\n", meta.Linkage.SegmentUID)
	}
	if meta.Linkage.Linked() {
		fmt.Fprintf(out, "  previous: %s\n  next: %s\n", uidOrDash(meta.Linkage.PrevUID), uidOrDash(meta.Linkage.NextUID))
	}

	rows := make([][]string, 0, len(meta.Tracks))
	for _, track := range meta.Tracks {
		lang := ""
		if track.Language != "" {
			lang = language.DisplayName(track.Language)
		}
		rows = append(rows, []string{
			strconv.Itoa(track.ID),
			string(track.Kind),
			track.CodecID,
			lang,
			track.Name,
			yesNo(track.Default),
			yesNo(track.Forced),
		})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title: "Tracks",
		columns: []column{
			{header: "ID", align: alignRight},
			{header: "Type"},
			{header: "Codec"},
			{header: "Language"},
			{header: "Name", maxWidth: 40},
			{header: "Default"},
			{header: "Forced"},
		},
		rows: rows,
	}))

	if meta.ChapterErr != nil {
		fmt.Fprintf(out, "  chapters: unreadable (%v)\n", meta.ChapterErr)
	}
	if meta.Ordered() {
		chapterRows := make([][]string, 0, len(meta.OrderedChapters))
		for i, span := range meta.OrderedChapters {
			from := "this file"
			if span.Foreign() {
				from = span.Segment.String()
			}
			chapterRows = append(chapterRows, []string{
				strconv.Itoa(i + 1),
				formatNanos(span.Start),
				formatNanos(span.End),
				from,
				span.Title,
			})
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			title: "Ordered chapters",
			columns: []column{
				{header: "#", align: alignRight},
				{header: "Start"},
				{header: "End"},
				{header: "Segment"},
				{header: "Title", maxWidth: 40},
			},
			rows: chapterRows,
		}))
	}

	if len(meta.Fonts) == 0 {
		return
	}
	fontRows := make([][]string, 0, len(meta.Fonts))
	for _, font := range meta.Fonts {
		fontRows = append(fontRows, []string{strconv.Itoa(font.AttachmentID), filepath.Base(font.FileName), font.MIMEType})
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title: "Fonts",
		columns: []column{
			{header: "ID", align: alignRight},
			{header: "File"},
			{header: "MIME type"},
		},
		rows: fontRows,
	}))
}

func formatNanos(ns int64) string {
	d := time.Duration(ns)
	return fmt.Sprintf("%02d:%02d:%06.3f", int(d.Hours()), int(d.Minutes())%60, math.Mod(d.Seconds(), 60))
}

func uidOrDash(uid uuid.UUID) string {
	if uid == uuid.Nil {
		return "-"
	}
	return uid.String()
}
