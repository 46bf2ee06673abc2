// Package domain contains core business entities and interfaces.
package domain

// Stage represents the lifecycle stage directory a plan resides in.
type Stage string

const (
	StageBuild   Stage = "build"   // Tasks being executed
	StageReview  Stage = "review"  // All tasks complete, awaiting human review
	StageSpecs   Stage = "specs"   // Documentation / spec generation
	StageArchive Stage = "archive" // Terminal
)

// AllStages returns all valid stage values in lifecycle order.
func AllStages() []Stage {
	return []Stage{StageBuild, StageReview, StageSpecs, StageArchive}
}

// IsValid returns true if the stage is a known value.
func (s Stage) IsValid() bool {
	switch s {
	case StageBuild, StageReview, StageSpecs, StageArchive:
		return true
	default:
		return false
	}
}

// Container identifies a task lifecycle directory within a plan.
// The container an entry resides in is the durable record of its status;
// moving an entry between containers is the only status transition.
type Container string

const (
	ContainerAccepted Container = "accepted" // Untouched, eligible for dispatch
	ContainerBusy     Container = "busy"     // Dispatch in flight (or stale after a crash)
	ContainerTested   Container = "tested"   // Build and verification complete
	ContainerDone     Container = "done"     // Terminal; no longer part of the working tree
)

// StatusContainers returns the containers whose entries form the working tree.
func StatusContainers() []Container {
	return []Container{ContainerAccepted, ContainerBusy, ContainerTested}
}

// TaskKind distinguishes a regular task directory from the reserved
// concurrent-group container. The name pattern is resolved exactly once,
// when the tree is built, never re-matched by helpers.
type TaskKind string

const (
	KindSequential      TaskKind = "sequential"
	KindConcurrentGroup TaskKind = "concurrent_group"
)

// Task represents one task directory inside a plan's status container.
// Fields are ordered to minimize memory padding.
type Task struct {
	Order          *int      // Numeric prefix, nil when unnumbered
	Subtasks       *TaskTree // Nested subtask tree (never nil, may be empty)
	Name           string    // Directory name as on disk
	Display        string    // Name with the numeric prefix stripped
	RelPath        string    // Path relative to the status container
	BuildSuccessID string    // Session id of an existing task.success.<id>.md ("" if none)
	TestSuccessID  string    // Session id of an existing test.success.<id>.md ("" if none)
	Status         Container // Derived from the container the entry resides in
	Kind           TaskKind
	HasBuildPrompt bool
	HasTestPrompt  bool
	Skipped        bool // Zero-byte .skipped marker present
}

// BuildComplete returns true if the build phase has a durable success record.
func (t *Task) BuildComplete() bool {
	return t.BuildSuccessID != ""
}

// VerifyComplete returns true if no verification is required or it passed.
func (t *Task) VerifyComplete() bool {
	return !t.HasTestPrompt || t.TestSuccessID != ""
}

// Complete reports whether this task needs no further work.
// A skipped task counts as done with no verification. A concurrent-group
// container is done when every child is done; it has no build phase of its
// own. A regular task is done once its subtasks, build and verification are
// all done. An entry resting in the tested container is done by definition.
func (t *Task) Complete() bool {
	if t.Skipped {
		return true
	}
	if t.Status == ContainerTested {
		return true
	}
	if t.Kind == KindConcurrentGroup {
		return t.Subtasks.AllComplete()
	}
	if !t.Subtasks.AllComplete() {
		return false
	}
	return t.BuildComplete() && t.VerifyComplete()
}
