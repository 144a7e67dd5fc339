package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/dictation"
	"cuadrilla/internal/logging"
	"cuadrilla/internal/submission"
)

func newDictateCommand(ctx *commandContext) *cobra.Command {
	var siteFlag int64

	cmd := &cobra.Command{
		Use:   "dictate",
		Short: "Read recognized utterances from stdin and submit attendance",
		Long: `Read one recognized utterance per line from stdin, parse it into
(document, status) pairs and submit them to the attendance server in batches.

Lines starting with a slash are commands:
  /site N    switch to site N, discarding anything not yet sent
  /pending   list entries waiting to be sent
  /flush     send pending entries now`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			siteID, err := ctx.siteID(siteFlag)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			queue := submission.New(client, siteID,
				submission.WithFlushDelay(cfg.FlushDelay()),
				submission.WithRetryDelay(cfg.RetryDelay()),
				submission.WithLogger(logger),
			)
			defer queue.Close()

			session := &dictationSession{out: cmd.OutOrStdout(), queue: queue, logger: logger}
			if err := session.run(cmd, cmd.InOrStdin()); err != nil {
				return err
			}
			if err := queue.Drain(cmd.Context()); err != nil {
				return ctx.wrapAPIError(fmt.Errorf("submit pending entries: %w", err))
			}
			fmt.Fprintf(session.out, "done: %d pair(s) recognized\n", session.recognized)
			return nil
		},
	}

	cmd.Flags().Int64Var(&siteFlag, "site", 0, "Site ID (defaults to client.site_id)")
	return cmd
}

type dictationSession struct {
	out        io.Writer
	queue      *submission.Queue
	logger     *slog.Logger
	recognized int
}

func (s *dictationSession) run(cmd *cobra.Command, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if err := s.command(cmd, line); err != nil {
				return err
			}
			continue
		}
		if err := s.utterance(line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func (s *dictationSession) utterance(line string) error {
	result := dictation.Parse(line)
	if len(result.Pairs) > 0 {
		if err := s.queue.Enqueue(result.Pairs...); err != nil {
			return err
		}
		s.recognized += len(result.Pairs)
		for _, p := range result.Pairs {
			fmt.Fprintf(s.out, "queued: %s %s\n", p.DocumentID, p.Status)
		}
		return nil
	}
	if result.Partial.DocumentID != "" || result.Partial.Status != "" {
		fmt.Fprintln(s.out, describePartial(result.Partial))
		return nil
	}
	fmt.Fprintf(s.out, "unrecognized: %s\n", line)
	return nil
}

func (s *dictationSession) command(cmd *cobra.Command, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/site":
		if len(fields) != 2 {
			fmt.Fprintln(s.out, "usage: /site N")
			return nil
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id <= 0 {
			fmt.Fprintf(s.out, "invalid site %q\n", fields[1])
			return nil
		}
		dropped := len(s.queue.Pending())
		s.queue.SwitchSite(id)
		fmt.Fprintf(s.out, "site: %d (discarded %d pending)\n", id, dropped)
	case "/pending":
		pending := s.queue.Pending()
		if len(pending) == 0 {
			fmt.Fprintln(s.out, "pending: none")
			return nil
		}
		for _, p := range pending {
			fmt.Fprintf(s.out, "pending: %s %s\n", p.DocumentID, p.Status)
		}
	case "/flush":
		sent, err := s.queue.Flush(cmd.Context())
		if err != nil {
			logging.WarnWithContext(s.logger, "manual flush failed", "dictation_flush_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check that the attendance server is running"),
				logging.String(logging.FieldImpact, "entries stay queued and will be retried"),
			)
			fmt.Fprintf(s.out, "flush failed: %v\n", err)
			return nil
		}
		fmt.Fprintf(s.out, "flushed: %d\n", sent)
	default:
		fmt.Fprintf(s.out, "unknown command %s\n", fields[0])
	}
	return nil
}
