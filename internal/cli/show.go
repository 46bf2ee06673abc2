package cli

import (
	"fmt"

	"github.com/planloop/planloop/internal/app"
	"github.com/planloop/planloop/internal/usecase"
	"github.com/spf13/cobra"
)

// newShowCommand creates the show command for reading task documents.
func newShowCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Section string
		Offset  int
		Limit   int
	}

	cmd := &cobra.Command{
		Use:   "show <plan> <task>",
		Short: "Show a section of a task's documents",
		Long: `Read one section of a task's documents, wherever the plan currently
resides. Transcripts can run long; --offset and --limit paginate by line.

Sections:
  full         the whole build transcript (default)
  final        last message of the build transcript
  prompt       build instruction
  test-prompt  verification instruction
  work         persisted work summary

Examples:
  planloop show billing-rework 01-schema
  planloop show billing-rework 01-schema --section final
  planloop show billing-rework 01-schema --offset 200 --limit 100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ShowSectionUseCase().Execute(cmd.Context(), usecase.ShowSectionInput{
				Plan:    args[0],
				Task:    args[1],
				Section: opts.Section,
				Offset:  opts.Offset,
				Limit:   opts.Limit,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Content)
			if opts.Limit > 0 && out.TotalLines > opts.Offset+opts.Limit {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "(%d of %d lines)\n", opts.Limit, out.TotalLines)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Section, "section", usecase.SectionFull, "Document section to show")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "First line to show")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum lines to show (0 = all)")

	return cmd
}
