package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/api"
	"cuadrilla/internal/export"
	"cuadrilla/internal/services"
)

func newSitesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	sitesCmd := &cobra.Command{
		Use:   "sites",
		Short: "List and manage work sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			sites, err := client.Sites(cmd.Context())
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, sites)
			}
			out := cmd.OutOrStdout()
			if len(sites) == 0 {
				fmt.Fprintln(out, "No sites configured; add one with `cuadrilla sites add <name>`")
				return nil
			}
			rows := make([][]string, 0, len(sites))
			for _, s := range sites {
				rows = append(rows, []string{strconv.FormatInt(s.ID, 10), s.Name, s.CreatedAt})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Created"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
	sitesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	sitesCmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a site",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			site, err := client.CreateSite(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created site %d: %s\n", site.ID, site.Name)
			return nil
		},
	})
	sitesCmd.AddCommand(&cobra.Command{
		Use:   "rename <site-id> <name...>",
		Short: "Change a site's name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("site", args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			site, err := client.RenameSite(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed site %d to %s\n", site.ID, site.Name)
			return nil
		},
	})
	sitesCmd.AddCommand(newSitesDeleteCommand(ctx))
	return sitesCmd
}

func newSitesDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "delete <site-id>",
		Short: "Delete a site with its workers, attendance and activity log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("site", args[0])
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("deleting site %d removes its whole attendance history; rerun with --yes", id)
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.DeleteSite(cmd.Context(), id)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted site %d: removed %d worker(s), %d attendance record(s), %d activity entry(s)\n",
				resp.SiteID, resp.Workers, resp.Records, resp.Activities)
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the deletion")
	return cmd
}

func newWorkersCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64

	workersCmd := &cobra.Command{
		Use:   "workers",
		Short: "Manage the workers registered at a site",
	}
	workersCmd.PersistentFlags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")

	workersCmd.AddCommand(newWorkersListCommand(ctx, &siteFlag))
	workersCmd.AddCommand(newWorkersAddCommand(ctx, &siteFlag))
	workersCmd.AddCommand(newWorkersRenameCommand(ctx))
	workersCmd.AddCommand(newWorkersDeactivateCommand(ctx))
	workersCmd.AddCommand(newWorkersImportCommand(ctx, &siteFlag))
	return workersCmd
}

func newWorkersListCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	var all bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(*siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			workers, err := client.Workers(cmd.Context(), siteID, all)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, workers)
			}
			out := cmd.OutOrStdout()
			if len(workers) == 0 {
				fmt.Fprintln(out, "No workers registered")
				return nil
			}
			rows := make([][]string, 0, len(workers))
			for _, w := range workers {
				rows = append(rows, []string{strconv.FormatInt(w.ID, 10), w.DocumentID, w.FullName, yesNo(w.Active)})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Document", "Name", "Active"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include deactivated workers")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newWorkersAddCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "add <document-id> [full name...]",
		Short: "Register a worker (reactivates a deactivated one)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(*siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.RegisterWorker(cmd.Context(), api.RegisterWorkerRequest{
				SiteID:     siteID,
				DocumentID: args[0],
				FullName:   strings.Join(args[1:], " "),
			})
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			verb := "Reactivated"
			if resp.Created {
				verb = "Registered"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s worker %d: %s (%s)\n", verb, resp.Worker.ID, resp.Worker.FullName, resp.Worker.DocumentID)
			return nil
		},
	}
}

func newWorkersRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <worker-id> <full name...>",
		Short: "Change a worker's display name",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("worker", args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			worker, err := client.RenameWorker(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed worker %d to %s\n", worker.ID, worker.FullName)
			return nil
		},
	}
}

func newWorkersDeactivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <worker-id>",
		Short: "Hide a worker from active listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("worker", args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			worker, err := client.DeactivateWorker(cmd.Context(), id)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated worker %d (%s)\n", worker.ID, worker.FullName)
			return nil
		},
	}
}

func newWorkersImportCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "import <roster.csv|roster.xlsx>",
		Short: "Register every worker listed in a CSV or XLSX roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(*siteFlag)
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open roster: %w", err)
			}
			defer file.Close()
			rows, err := export.ReadRoster(file, args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var created, reactivated, existing, failed int
			for _, row := range rows {
				resp, err := client.RegisterWorker(cmd.Context(), api.RegisterWorkerRequest{
					SiteID:     siteID,
					DocumentID: row.DocumentID,
					FullName:   row.FullName,
				})
				switch {
				case err == nil && resp.Created:
					created++
				case err == nil:
					reactivated++
				case errors.Is(err, services.ErrConflict):
					existing++
				case api.IsAPIUnavailable(err):
					return ctx.wrapAPIError(err)
				default:
					failed++
					fmt.Fprintf(out, "line %d (%s): %v\n", row.Line, row.DocumentID, err)
				}
			}
			fmt.Fprintf(out, "Imported %d row(s): %d new, %d reactivated, %d already registered, %d failed\n",
				len(rows), created, reactivated, existing, failed)
			return nil
		},
	}
}

func parseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, value)
	}
	return id, nil
}
