package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show attendance daemon and database status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			status, statusErr := client.Status(cmd.Context())
			health, healthErr := client.Health(cmd.Context())
			if jsonOutput {
				payload := map[string]any{"server": client.BaseURL(), "reachable": statusErr == nil}
				if statusErr == nil {
					payload["status"] = status
				}
				if healthErr == nil {
					payload["health"] = health
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Cuadrilla", colorize)
			if statusErr != nil {
				kind := statusError
				message := statusErr.Error()
				if api.IsAPIUnavailable(statusErr) {
					message = fmt.Sprintf("not reachable at %s (start it with `cuadrilla serve`)", client.BaseURL())
				}
				lines = append(lines, renderStatusLine("Daemon", kind, message, colorize))
				lines = append(lines, renderStatusLine("Config", statusInfo, configSource(ctx), colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return nil
			}

			lines = append(lines,
				renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d, run %s)", status.PID, status.RunID), colorize),
				renderStatusLine("Server", statusInfo, client.BaseURL(), colorize),
				renderStatusLine("Started", statusInfo, status.StartedAt, colorize),
				renderStatusLine("Sites", statusInfo, strconv.Itoa(status.Sites), colorize),
				renderStatusLine("Auth", statusInfo, "token required: "+yesNo(status.AuthRequired), colorize),
				renderStatusLine("Default site", statusInfo, defaultSiteLabel(cfg.Client.SiteID), colorize),
				renderStatusLine("Config", statusInfo, configSource(ctx), colorize),
			)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Database", colorize)...)
			lines = append(lines, renderStatusLine("Path", statusInfo, status.DatabasePath, colorize))
			switch {
			case healthErr != nil:
				lines = append(lines, renderStatusLine("Health", statusError, healthErr.Error(), colorize))
			case health.Status == "ok":
				lines = append(lines, renderStatusLine("Health", statusOK, fmt.Sprintf("schema v%d, integrity ok", health.Database.SchemaVersion), colorize))
			default:
				detail := health.Database.Error
				if len(health.Database.MissingTables) > 0 {
					detail = "missing tables: " + strings.Join(health.Database.MissingTables, ", ")
				}
				lines = append(lines, renderStatusLine("Health", statusWarn, detail, colorize))
			}
			if healthErr == nil {
				for _, table := range []string{"sites", "workers", "attendance"} {
					if n, ok := health.Database.RowCounts[table]; ok {
						lines = append(lines, renderStatusLine("Rows "+table, statusInfo, strconv.Itoa(n), colorize))
					}
				}
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func configSource(ctx *commandContext) string {
	if ctx.configPath == "" {
		return "defaults"
	}
	if !ctx.configSeen {
		return ctx.configPath + " (not found, defaults used)"
	}
	return ctx.configPath
}

func defaultSiteLabel(id int64) string {
	if id <= 0 {
		return "none"
	}
	return strconv.FormatInt(id, 10)
}
