package domain

import (
	"context"
	"time"
)

// AgentService is the consumed interface of the external agent execution
// service. It is specified here and implemented by infra; this system never
// reimplements the service itself.
type AgentService interface {
	// CreateSession creates a new session and returns its id.
	CreateSession(ctx context.Context, title string) (string, error)

	// Send delivers text to a session under a role and awaits completion.
	Send(ctx context.Context, sessionID, role, text string) error

	// ListMessages returns the session transcript in order.
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)

	// Abort force-terminates a session.
	Abort(ctx context.Context, sessionID string) error
}

// PlanReader is the read side of the plan filesystem: tree reconstruction
// and task document access. Pure reads, safe after a crash.
type PlanReader interface {
	// BuildPlan merges the accepted, busy and tested containers of a plan
	// into one working tree.
	BuildPlan(planDir string) (*TaskTree, error)

	// FindTask locates a task directory across the plan's containers,
	// done included.
	FindTask(planDir, relPath string) (taskDir string, c Container, err error)

	// ReadDoc reads a named document from a task directory. A missing file
	// is reported as (nil, false, nil).
	ReadDoc(taskDir, name string) ([]byte, bool, error)

	// LatestTranscript returns the preferred transcript file name for a
	// phase ("task" or "test"): success when present, else failure.
	LatestTranscript(taskDir, phase string) (name string, ok bool, err error)
}

// StateManager performs the status transitions backing the scheduler:
// atomic relocations between lifecycle containers, session metadata
// read-modify-write, and plan scaffolding.
type StateManager interface {
	// PlanDir returns the directory of a plan within a stage.
	PlanDir(stage Stage, plan string) string

	// FindPlanStage locates the stage a plan currently resides in.
	FindPlanStage(plan string) (Stage, error)

	// MoveTask relocates a task directory between status containers.
	MoveTask(plan, relPath string, from, to Container) error

	// MovePlanStage relocates an entire plan between stage containers.
	MovePlanStage(plan string, from, to Stage) error

	// ArchivePlan is the terminal relocation into the archive stage.
	ArchivePlan(plan string, from Stage) error

	// ResetBusyTasks moves every busy entry back to accepted.
	ResetBusyTasks(plan string) (int, error)

	// ReadSessionMeta reads the per-plan session metadata record.
	ReadSessionMeta(plan string) (*SessionMeta, error)

	// UpdateSessionMeta applies fn to the record and writes it back.
	UpdateSessionMeta(plan string, fn func(*SessionMeta)) error

	// RevealReview renames the hidden review document visible.
	RevealReview(planDir string) error

	// ScaffoldPlan creates the initial layout for a new plan.
	ScaffoldPlan(plan, instruction, review string) error

	// WriteTaskDoc writes a named document into a task directory.
	WriteTaskDoc(plan string, container Container, relPath, name, content string) error

	// ListPlans returns the plan names under a stage.
	ListPlans(stage Stage) ([]string, error)
}

// Logger writes leveled log entries scoped to a plan. An empty plan name
// targets the global log only.
type Logger interface {
	Debug(plan, category, msg string)
	Info(plan, category, msg string)
	Warn(plan, category, msg string)
	Error(plan, category, msg string)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
