package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/api"
)

func newActivitiesCommand(ctx *commandContext) *cobra.Command {
	var (
		siteFlag   int64
		date       string
		jsonOutput bool
	)

	activitiesCmd := &cobra.Command{
		Use:   "activities",
		Short: "Show or edit a site's daily activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			activities, err := client.Activities(cmd.Context(), siteID, date)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			if jsonOutput {
				return writeJSON(cmd, activities)
			}
			out := cmd.OutOrStdout()
			if len(activities) == 0 {
				fmt.Fprintln(out, "No activities logged")
				return nil
			}
			rows := make([][]string, 0, len(activities))
			for _, a := range activities {
				rows = append(rows, []string{
					strconv.FormatInt(a.ID, 10),
					strconv.Itoa(a.OrderIndex),
					a.Description,
				})
			}
			fmt.Fprintf(out, "Site %d, %s\n", siteID, activities[0].Date)
			fmt.Fprintln(out, renderTable([]string{"ID", "#", "Activity"}, rows,
				[]columnAlignment{alignRight, alignRight, alignLeft}))
			return nil
		},
	}
	activitiesCmd.PersistentFlags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	activitiesCmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	activitiesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")

	activitiesCmd.AddCommand(newActivitiesAddCommand(ctx, &siteFlag))
	activitiesCmd.AddCommand(newActivitiesEditCommand(ctx, &siteFlag))
	activitiesCmd.AddCommand(newActivitiesDeleteCommand(ctx, &siteFlag))
	return activitiesCmd
}

func newActivitiesAddCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add <description...>",
		Short: "Append an activity to the log",
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
			added, err := client.AddActivities(cmd.Context(), siteID, api.AddActivitiesRequest{
				Description: strings.Join(args, " "),
				Date:        date,
			})
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			for _, a := range added {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged activity %d for %s: %s\n", a.ID, a.Date, a.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day as YYYY-MM-DD (defaults to the server's today)")
	return cmd
}

func newActivitiesEditCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	var (
		description string
		date        string
		order       int
	)
	cmd := &cobra.Command{
		Use:   "edit <activity-id>",
		Short: "Change an activity's text, day or position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("activity", args[0])
			if err != nil {
				return err
			}
			siteID, err := ctx.siteID(*siteFlag)
			if err != nil {
				return err
			}
			var req api.UpdateActivityRequest
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("date") {
				req.Date = &date
			}
			if cmd.Flags().Changed("order") {
				req.OrderIndex = &order
			}
			if req.Description == nil && req.Date == nil && req.OrderIndex == nil {
				return fmt.Errorf("nothing to change; pass --description, --date or --order")
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			activity, err := client.UpdateActivity(cmd.Context(), siteID, id, req)
			if err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %d (%s #%d): %s\n",
				activity.ID, activity.Date, activity.OrderIndex, activity.Description)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "New activity text")
	cmd.Flags().StringVar(&date, "date", "", "Move the activity to this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&order, "order", 0, "New position within the day (1-1000)")
	return cmd
}

func newActivitiesDeleteCommand(ctx *commandContext, siteFlag *int64) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <activity-id>",
		Short: "Remove an activity from the log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("activity", args[0])
			if err != nil {
				return err
			}
			siteID, err := ctx.siteID(*siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if err := client.DeleteActivity(cmd.Context(), siteID, id); err != nil {
				return ctx.wrapAPIError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted activity %d\n", id)
			return nil
		},
	}
}
