package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-lingua-api/internal/planner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quizplan",
		Short:        "Plan a quiz layout worth an exact number of points",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			points, _ := cmd.Flags().GetInt("points")
			types, _ := cmd.Flags().GetStringSlice("types")
			level, _ := cmd.Flags().GetString("level")
			tablesPath, _ := cmd.Flags().GetString("tables")
			format, _ := cmd.Flags().GetString("format")

			tables := planner.DefaultTables()
			if tablesPath != "" {
				loaded, err := planner.LoadTables(tablesPath)
				if err != nil {
					return err
				}
				tables = loaded
			}

			plan, err := planner.New(tables).Plan(planner.Request{
				TargetPoints: points,
				AllowedTypes: types,
				Level:        level,
			})
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(plan)
			case "table":
				printTable(cmd.OutOrStdout(), plan)
				return nil
			default:
				return fmt.Errorf("unknown format %q (use json or table)", format)
			}
		},
	}

	cmd.Flags().Int("points", 0, "Exact point total the quiz must reach")
	cmd.Flags().StringSlice("types", nil, "Allowed question types, comma separated")
	cmd.Flags().String("level", "", "CEFR level (A1 to C2)")
	cmd.Flags().String("tables", "", "Optional YAML or JSON file overriding the planner tables")
	cmd.Flags().String("format", "json", "Output format: json or table")
	_ = cmd.MarkFlagRequired("points")
	_ = cmd.MarkFlagRequired("types")
	_ = cmd.MarkFlagRequired("level")

	return cmd
}

func printTable(w io.Writer, plan planner.Plan) {
	fmt.Fprintf(w, "%3s  %-20s  %6s  %s\n", "#", "Type", "Points", "Rationale")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, question := range plan.Questions {
		fmt.Fprintf(w, "%3d  %-20s  %6d  %s\n", question.QuestionNumber, question.Type, question.Points, question.Rationale)
	}
	fmt.Fprintf(w, "\n%d questions, %d points (target %d, level %s)\n",
		len(plan.Questions), plan.Validation.ComputedTotal, plan.Validation.TargetTotal, plan.Level)
}
