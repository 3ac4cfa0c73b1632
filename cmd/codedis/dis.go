package main

import (
	"fmt"

	"github.com/risor-io/codedis/bytecode"
	"github.com/risor-io/codedis/dis"
	"github.com/spf13/cobra"
)

func newDisCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [image]",
		Short: "Disassemble a bytecode image",
		Long: `Disassemble a JSON bytecode image and every code object nested in it.

The image is read from a file, from stdin when the argument is "-" or
--stdin is given, or from S3 when the argument is an s3://bucket/key URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDis(cmd, args)
		},
	}
	flags := cmd.Flags()
	flags.String("func", "", "Disassemble only the nested code object with this name")
	flags.Bool("strict", false, "Fail on undecodable bytes instead of showing placeholders")
	flags.Bool("info", false, "Print code object details before each listing")
	flags.StringP("output", "o", "text", "Output format (text, json)")
	flags.Bool("stdin", false, "Read the image from stdin")
	cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp))

	a.v.BindPFlag("dis.strict", flags.Lookup("strict"))
	a.v.BindPFlag("dis.info", flags.Lookup("info"))
	a.v.BindPFlag("dis.output", flags.Lookup("output"))
	return cmd
}

func (a *app) runDis(cmd *cobra.Command, args []string) error {
	format, err := checkOutputFormat(a.v.GetString("dis.output"))
	if err != nil {
		return err
	}
	stdin, _ := cmd.Flags().GetBool("stdin")
	code, err := a.loadCode(cmd, args, stdin)
	if err != nil {
		return err
	}
	target := code
	if name, _ := cmd.Flags().GetString("func"); name != "" {
		if target = findCode(code, name); target == nil {
			return fmt.Errorf("function %q not found", name)
		}
	}

	out := cmd.OutOrStdout()
	colored := a.useColor(out)
	opts := []dis.Option{
		dis.WithOutput(out),
		dis.WithStrict(a.v.GetBool("dis.strict")),
		dis.WithInfo(a.v.GetBool("dis.info")),
		dis.WithColor(colored),
		dis.WithLogger(a.logger),
	}
	if format == "text" {
		return dis.Disassemble(target, opts...)
	}

	listing, err := dis.Analyze(target, opts...)
	if err != nil {
		return err
	}
	data, err := formatJSON(listing, colored)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// findCode returns the first code object, in listing order, whose name or
// qualified name matches name.
func findCode(root *bytecode.Code, name string) *bytecode.Code {
	seen := map[*bytecode.Code]bool{}
	var visit func(*bytecode.Code) *bytecode.Code
	visit = func(code *bytecode.Code) *bytecode.Code {
		if seen[code] {
			return nil
		}
		seen[code] = true
		if code.Name() == name || code.QualName() == name {
			return code
		}
		for _, child := range code.Children() {
			if found := visit(child); found != nil {
				return found
			}
		}
		return nil
	}
	return visit(root)
}
