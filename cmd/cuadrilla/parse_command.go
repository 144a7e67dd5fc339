package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cuadrilla/internal/dictation"
)

type parseOutput struct {
	Utterance string             `json:"utterance"`
	Pairs     []dictation.Pair   `json:"pairs"`
	Fallback  bool               `json:"fallback"`
	Partial   *dictation.Partial `json:"partial,omitempty"`
}

func newParseCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "parse [utterance...]",
		Short:       "Parse utterances offline and print the recognized pairs",
		Long:        "Parse the utterance given as arguments, or every line read from stdin when no arguments are given.",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var utterances []string
			if len(args) > 0 {
				utterances = []string{strings.Join(args, " ")}
			} else {
				lines, err := readLines(cmd.InOrStdin())
				if err != nil {
					return err
				}
				utterances = lines
			}

			results := make([]parseOutput, 0, len(utterances))
			for _, u := range utterances {
				results = append(results, parseOne(u))
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				printParseResult(out, r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func parseOne(utterance string) parseOutput {
	result := dictation.Parse(utterance)
	out := parseOutput{Utterance: utterance, Pairs: result.Pairs, Fallback: result.Fallback}
	if out.Pairs == nil {
		out.Pairs = []dictation.Pair{}
	}
	if result.Fallback {
		partial := result.Partial
		out.Partial = &partial
	}
	return out
}

func printParseResult(out io.Writer, r parseOutput) {
	fmt.Fprintf(out, "> %s\n", r.Utterance)
	for _, p := range r.Pairs {
		fmt.Fprintf(out, "  %s %s\n", p.DocumentID, p.Status)
	}
	if r.Partial != nil && !r.Partial.Complete() {
		fmt.Fprintf(out, "  %s\n", describePartial(*r.Partial))
	}
	if len(r.Pairs) == 0 && (r.Partial == nil || r.Partial.Complete()) {
		fmt.Fprintln(out, "  (nothing recognized)")
	}
}

func describePartial(p dictation.Partial) string {
	id := p.DocumentID
	if id == "" {
		id = "?"
	}
	status := string(p.Status)
	if status == "" {
		status = "?"
	}
	if p.Keyword != "" {
		return fmt.Sprintf("partial: %s %s %s", p.Keyword, id, status)
	}
	return fmt.Sprintf("partial: %s %s", id, status)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}
