// Package cli provides the command-line interface for planloop.
package cli

import (
	"github.com/planloop/planloop/internal/app"
	"github.com/spf13/cobra"
)

// Command group IDs.
const (
	groupPlan = "plan"
	groupExec = "exec"
)

// NewRootCommand creates the root command for planloop.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "planloop",
		Short: "Fire-and-forget task orchestration for agent services",
		Long: `planloop decomposes approved plans into ordered task groups and drives
them through an external agent execution service: dispatch, verification,
failure classification and fix-and-resume.

All state lives in plain directories under the plans root (the current
directory, or $PLANLOOP_ROOT). Every run re-derives its position from disk,
so execution is resumable after any crash.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.AddGroup(
		&cobra.Group{ID: groupPlan, Title: "Plan Management:"},
		&cobra.Group{ID: groupExec, Title: "Execution:"},
	)

	initCmd := newInitCommand(c)
	initCmd.GroupID = groupPlan

	listCmd := newListCommand(c)
	listCmd.GroupID = groupPlan

	showCmd := newShowCommand(c)
	showCmd.GroupID = groupPlan

	archiveCmd := newArchiveCommand(c)
	archiveCmd.GroupID = groupPlan

	resumeCmd := newResumeCommand(c)
	resumeCmd.GroupID = groupExec

	fixCmd := newFixCommand(c)
	fixCmd.GroupID = groupExec

	abortCmd := newAbortCommand(c)
	abortCmd.GroupID = groupExec

	root.AddCommand(
		initCmd,
		listCmd,
		showCmd,
		archiveCmd,
		resumeCmd,
		fixCmd,
		abortCmd,
	)

	return root
}
