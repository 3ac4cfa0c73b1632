package main

import (
	"fmt"
	"strconv"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/internal/table"
	"github.com/spf13/cobra"
)

type codeStats struct {
	Name     string `json:"name"`
	QualName string `json:"qualname"`
	bytecode.Stats
}

func newStatsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [image]",
		Short: "Print size statistics for each code object in an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd, args)
		},
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "text", "Output format (text, json)")
	flags.Bool("stdin", false, "Read the image from stdin")
	cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))
	a.v.BindPFlag("stats.output", flags.Lookup("output"))
	return cmd
}

func (a *app) runStats(cmd *cobra.Command, args []string) error {
	format, err := checkOutputFormat(a.v.GetString("stats.output"))
	if err != nil {
		return err
	}
	stdin, _ := cmd.Flags().GetBool("stdin")
	code, err := a.loadCode(cmd, args, stdin)
	if err != nil {
		return err
	}
	stats := collectStats(code)

	out := cmd.OutOrStdout()
	if format == "json" {
		data, err := formatJSON(stats, a.useColor(out))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.QualName,
			strconv.Itoa(s.InstructionBytes),
			strconv.Itoa(s.ConstantCount),
			strconv.Itoa(s.NameCount),
			strconv.Itoa(s.VarNameCount),
			strconv.Itoa(s.DerefCount),
			strconv.Itoa(s.NestedCodeCount),
		})
	}
	right := table.AlignRight
	return table.NewTable(out).
		WithHeader([]string{"CODE", "BYTES", "CONSTANTS", "NAMES", "LOCALS", "DEREFS", "NESTED"}).
		WithHeaderAlignment([]table.Alignment{table.AlignCenter, right, right, right, right, right, right}).
		WithColumnAlignment([]table.Alignment{table.AlignLeft, right, right, right, right, right, right}).
		WithRows(rows).
		Render()
}

// collectStats returns the statistics of every code object reachable from
// root, depth first in constant order. Each code object is listed once.
func collectStats(root *bytecode.Code) []codeStats {
	var result []codeStats
	seen := map[*bytecode.Code]bool{}
	var visit func(*bytecode.Code)
	visit = func(code *bytecode.Code) {
		if seen[code] {
			return
		}
		seen[code] = true
		result = append(result, codeStats{
			Name:     code.Name(),
			QualName: code.QualName(),
			Stats:    code.Stats(),
		})
		for _, child := range code.Children() {
			visit(child)
		}
	}
	visit(root)
	return result
}
