package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of codedis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			format, _ := cmd.Flags().GetString("output")
			format, err := checkOutputFormat(format)
			if err != nil {
				return err
			}
			if format == "json" {
				data, err := formatJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				}, a.useColor(out))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			_, err = fmt.Fprintf(out, "codedis %s (commit %s, built %s)\n", version, commit, date)
			return err
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (text, json)")
	return cmd
}
