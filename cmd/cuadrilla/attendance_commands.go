package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/api"
	"cuadrilla/internal/attendance"
)

func newMarkCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64
	var fullName string
	var date string
	var notes string

	cmd := &cobra.Command{
		Use:   "mark <document-id> <present|absent>",
		Short: "Record one worker's attendance manually",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			status, ok := attendance.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("status must be present or absent, got %q", args[1])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.Mark(cmd.Context(), api.MarkRequest{
				SiteID:     siteID,
				DocumentID: args[0],
				Status:     string(status),
				FullName:   fullName,
				Date:       date,
				Notes:      notes,
			})
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s (%s) %s on %s\n",
				resp.Worker.FullName, resp.Worker.DocumentID, resp.Status, resp.Date)
			return nil
		},
	}

	cmd.Flags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	cmd.Flags().StringVar(&fullName, "name", "", "Worker name used when the worker is new")
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func newTodayCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64
	var date string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "today",
		Short: "List a site's attendance for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			entries, err := client.Day(cmd.Context(), siteID, date)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No attendance recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.AttendanceID, 10),
					e.DocumentID,
					e.FullName,
					attendanceLabel(e.Status, colorize),
					e.Notes,
				})
			}
			fmt.Fprintf(out, "Site %d, %s\n", siteID, entries[0].Date)
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Document", "Name", "Status", "Notes"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64
	var date string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count present, absent and unmarked workers for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			summary, err := client.Summary(cmd.Context(), siteID, date)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, summary)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Site %d, %s\n", summary.SiteID, summary.Date)
			fmt.Fprintln(out, renderTable(
				[]string{"Present", "Absent", "Unmarked", "Active workers"},
				[][]string{{
					strconv.Itoa(summary.Present),
					strconv.Itoa(summary.Absent),
					strconv.Itoa(summary.Unmarked),
					strconv.Itoa(summary.ActiveWorkers),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64
	var date string
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a day's attendance sheet as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			data, name, err := client.Export(cmd.Context(), siteID, date, format)
			if err != nil {
				return ctx.wrapAPIError(err)
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = name
			}
			if target == "" {
				target = fmt.Sprintf("asistencia-%d.%s", siteID, strings.ToLower(format))
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.WriteFile(target, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", target, len(data))
			return nil
		},
	}

	cmd.Flags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	cmd.Flags().StringVar(&format, "format", "csv", "Export format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file, or - for stdout (defaults to the server-suggested name)")
	return cmd
}
