// Package main provides the CLI entry point for xlgrid.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javajack/xlgrid"
	"github.com/javajack/xlgrid/cell"
)

type globalFlags struct {
	logLevel string
	aliases  []string
	sheet    string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:   "xlgrid",
		Short: "Evaluate spreadsheet formulas in Excel files",
		Long: `xlgrid loads one sheet of an Excel workbook into a formula grid
and evaluates its formula cells.`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringArrayVar(&g.aliases, "formula-alias", nil, "Formula name as name=ref (ref is a cell like B2 or a column like C); repeatable")
	rootCmd.PersistentFlags().StringVar(&g.sheet, "sheet", "", "Sheet name (default: first sheet)")

	rootCmd.AddCommand(newEvalCmd(g), newDumpCmd(g), newValidateCmd(g), newDescribeCmd(g))
	return rootCmd
}

func newEvalCmd(g *globalFlags) *cobra.Command {
	var cells []string
	cmd := &cobra.Command{
		Use:   "eval [input.xlsx]",
		Short: "Print evaluated formula values",
		Long: `Print the value of each requested cell, or of every formula cell
when no --cell is given. Failed formulas print their error code and reason.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := load(cmd, g, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(cells) == 0 {
				for _, r := range ed.EvaluateAll() {
					printResult(out, r)
				}
				return nil
			}
			for _, name := range cells {
				at, err := cell.ParseCoord(name)
				if err != nil {
					return fmt.Errorf("invalid --cell: %w", err)
				}
				printResult(out, xlgrid.CellResult{At: at, Result: ed.Evaluate(at.Row, at.Col)})
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&cells, "cell", nil, "Cell to evaluate, e.g. A3; repeatable")
	return cmd
}

func printResult(w io.Writer, r xlgrid.CellResult) {
	if r.Result.OK() {
		fmt.Fprintf(w, "%s\t%s\n", r.At, r.Result.String())
		return
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", r.At, r.Result.String(), r.Result.Err.Error())
}

// dumpOutput is the JSON document printed by the dump command.
type dumpOutput struct {
	Sheet   string               `json:"sheet,omitempty"`
	Display [][]string           `json:"display"`
	Data    xlgrid.FormattedData `json:"raw"`
	Metas   []xlgrid.CellMeta    `json:"metas"`
}

func newDumpCmd(g *globalFlags) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "dump [input.xlsx]",
		Short: "Print the sheet as JSON",
		Long: `Print the raw cells, their displayed values, merge regions and
comments of one sheet as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := load(cmd, g, args[0])
			if err != nil {
				return err
			}

			doc := dumpOutput{Sheet: g.sheet, Data: ed.DataWithFormat(), Metas: ed.Metas()}
			for r, row := range doc.Data.Data {
				shown := make([]string, len(row))
				for c := range row {
					shown[c] = ed.Display(r, c).Text
				}
				doc.Display = append(doc.Display, shown)
			}

			var jsonData []byte
			if pretty {
				jsonData, err = json.MarshalIndent(doc, "", "  ")
			} else {
				jsonData, err = json.Marshal(doc)
			}
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	return cmd
}

func newValidateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input.xlsx]",
		Short: "Check formulas without evaluating them",
		Long: `Report syntax errors, unknown functions and names, and suspicious
references in formula cells. Exits non-zero when any error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := load(cmd, g, args[0])
			if err != nil {
				return err
			}
			errCount := 0
			for _, issue := range ed.Validate() {
				fmt.Fprintln(cmd.OutOrStdout(), issue)
				if issue.Severity == xlgrid.SeverityError {
					errCount++
				}
			}
			if errCount > 0 {
				return fmt.Errorf("%d formula error(s) found", errCount)
			}
			return nil
		},
	}
}

func newDescribeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [input.xlsx]",
		Short: "Print an outline of the sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := load(cmd, g, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ed.Describe())
			return nil
		},
	}
}

func load(cmd *cobra.Command, g *globalFlags, inputPath string) (*xlgrid.Editor, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", g.logLevel)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	aliases := make(map[string]string, len(g.aliases))
	for _, a := range g.aliases {
		name, ref, ok := strings.Cut(a, "=")
		if !ok || name == "" || ref == "" {
			return nil, fmt.Errorf("invalid --formula-alias %q (want name=ref)", a)
		}
		aliases[strings.TrimSpace(name)] = strings.TrimSpace(ref)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", inputPath)
		}
		return nil, err
	}
	defer f.Close()

	ed, err := xlgrid.LoadXLSX(f, g.sheet, xlgrid.WithLogger(logger), xlgrid.WithAliases(aliases))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", inputPath, err)
	}
	return ed, nil
}
