package cli

import (
	"fmt"

	"github.com/planloop/planloop/internal/app"
	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/usecase"
	"github.com/spf13/cobra"
)

// newResumeCommand creates the resume command, the scheduler entry point.
func newResumeCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <plan>",
		Short: "Run the plan until it completes or a group fails",
		Long: `Drive a plan forward group by group. Each group's ready entries are
dispatched to the agent service concurrently, verified, and relocated
through the status containers. The run ends when the plan promotes to
review, a group member fails, or stale busy entries block progress.

Resume is idempotent: completed work is skipped via its on-disk
transcripts, so rerunning after a failure picks up exactly where the
previous run stopped.

Examples:
  # Run a plan
  planloop resume billing-rework

  # Retry after fixing a failed task
  planloop fix billing-rework 01-schema -m "apply the migration first"
  planloop resume billing-rework`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.ResumePlanUseCase().Execute(cmd.Context(), usecase.ResumePlanInput{Plan: args[0]})
			if err != nil {
				return err
			}

			switch {
			case out.Completed:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Plan %s complete (stage: %s)\n", args[0], out.Stage)
				return nil
			case out.Busy:
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Plan %s has busy entries from an earlier run\n", args[0])
				return domain.ErrPlanBusy
			default:
				printFailures(cmd, out.Failures)
				return fmt.Errorf("%d task(s) failed", len(out.Failures))
			}
		},
	}
}

// printFailures renders failure reports for remediation.
func printFailures(cmd *cobra.Command, failures []domain.FailureReport) {
	w := cmd.OutOrStdout()
	for _, fr := range failures {
		_, _ = fmt.Fprintf(w, "FAILED %s [%s]\n", fr.TaskPath, fr.Kind)
		if fr.SessionID != "" {
			_, _ = fmt.Fprintf(w, "  session: %s\n", fr.SessionID)
		}
		if fr.BuildSessionID != "" && fr.BuildSessionID != fr.SessionID {
			_, _ = fmt.Fprintf(w, "  build session: %s\n", fr.BuildSessionID)
		}
		if fr.Detail != "" {
			_, _ = fmt.Fprintf(w, "  %s\n", fr.Detail)
		}
	}
}

// newFixCommand creates the fix command for remediating failed builds.
func newFixCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Message string
		Session string
	}

	cmd := &cobra.Command{
		Use:   "fix <plan> <task>",
		Short: "Send a remediation message into a task's build session",
		Long: `Continue a failed task's existing build session with a remediation
message. On success the refreshed transcript becomes the durable build
record, and the next resume proceeds straight to verification.

Examples:
  planloop fix billing-rework 01-schema -m "apply the migration first"

  # Target an explicit session instead of the recorded one
  planloop fix billing-rework 01-schema --session sess-42 -m "retry"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.FixTaskUseCase().Execute(cmd.Context(), usecase.FixTaskInput{
				Plan:           args[0],
				Task:           args[1],
				BuildSessionID: opts.Session,
				Message:        opts.Message,
			})
			if err != nil {
				return err
			}
			if !out.Success {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s still failing (session %s)\n%s\n",
					args[1], out.SessionID, out.Summary)
				return fmt.Errorf("fix did not resolve task %s", args[1])
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Task %s fixed (session %s)\n", args[1], out.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Remediation message (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "Build session id (default: recorded session)")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

// newAbortCommand creates the abort command.
func newAbortCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "abort <plan>",
		Short: "Terminate active sessions and reset busy entries",
		Long: `Force-terminate every known active session of a plan and return all
busy entries to accepted. Required before resuming a plan whose previous
run crashed mid-flight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.AbortPlanUseCase().Execute(cmd.Context(), usecase.AbortPlanInput{Plan: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Aborted %d session(s), reset %d busy entr%s\n",
				len(out.AbortedSessions), out.ResetCount, pluralY(out.ResetCount))
			return nil
		},
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
