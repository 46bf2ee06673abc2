package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/planloop/planloop/internal/app"
	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/usecase"
	"github.com/spf13/cobra"
)

// newInitCommand creates the init command for scaffolding plans.
func newInitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		PlanFile   string
		ReviewFile string
	}

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new plan in the build stage",
		Long: `Create a new plan with its status containers, instruction document and
hidden review document. Task directories are added under accepted/ by the
decomposition step before the first resume.

Examples:
  # Create an empty plan
  planloop init billing-rework

  # Create a plan from an instruction file with a review checklist
  planloop init billing-rework --plan plan.md --review checklist.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instruction, err := readOptionalFile(opts.PlanFile)
			if err != nil {
				return err
			}
			review, err := readOptionalFile(opts.ReviewFile)
			if err != nil {
				return err
			}

			out, err := c.NewPlanUseCase().Execute(cmd.Context(), usecase.NewPlanInput{
				Name:        args[0],
				Instruction: instruction,
				Review:      review,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s at %s\n", args[0], out.PlanDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "Read the plan instruction from a file")
	cmd.Flags().StringVar(&opts.ReviewFile, "review", "", "Read the hidden review document from a file")

	return cmd
}

// newListCommand creates the list command.
func newListCommand(c *app.Container) *cobra.Command {
	var stage string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans across lifecycle stages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListPlansUseCase().Execute(cmd.Context(), usecase.ListPlansInput{
				Stage: domain.Stage(stage),
			})
			if err != nil {
				return err
			}
			if len(out.Plans) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No plans found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tSTAGE")
			for _, p := range out.Plans {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Stage)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Limit to one stage (build, review, specs, archive)")

	return cmd
}

// newArchiveCommand creates the archive command.
func newArchiveCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <plan>",
		Short: "Move a plan to the terminal archive stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ArchivePlanUseCase().Execute(cmd.Context(), usecase.ArchivePlanInput{Plan: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived plan %s (was in %s)\n", args[0], out.From)
			return nil
		},
	}
}

// readOptionalFile reads a file when a path is given; "" yields "".
func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
