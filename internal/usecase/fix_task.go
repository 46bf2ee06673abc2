package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/planloop/planloop/internal/domain"
)

// FixTaskInput contains the input for fixing a failed task.
type FixTaskInput struct {
	Plan           string
	Task           string // task path relative to its status container
	BuildSessionID string // optional; defaults to the recorded build session
	Message        string // remediation instruction for the implementer
}

// FixTaskOutput contains the result of a fix exchange.
type FixTaskOutput struct {
	SessionID string
	Summary   string
	Success   bool
}

// FixTask sends a remediation message into a task's existing build session
// and re-reads the verdict. On success the refreshed transcript is persisted
// as the build-success record, so the next resume treats the build phase as
// complete and proceeds straight to verification.
type FixTask struct {
	state  domain.StateManager
	reader domain.PlanReader
	agents domain.AgentService
	logger domain.Logger
	role   string // implementer role name
}

// NewFixTask creates a new FixTask use case.
func NewFixTask(state domain.StateManager, reader domain.PlanReader, agents domain.AgentService, logger domain.Logger, role string) *FixTask {
	return &FixTask{
		state:  state,
		reader: reader,
		agents: agents,
		logger: logger,
		role:   role,
	}
}

// Execute runs one fix exchange.
func (uc *FixTask) Execute(ctx context.Context, input FixTaskInput) (*FixTaskOutput, error) {
	if input.Plan == "" {
		return nil, domain.ErrEmptyPlanName
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, domain.ErrEmptyMessage
	}

	sessionID := input.BuildSessionID
	if sessionID == "" {
		meta, err := uc.state.ReadSessionMeta(input.Plan)
		if err != nil {
			return nil, err
		}
		if ts, ok := meta.TaskSessions[input.Task]; ok {
			sessionID = ts.BuildSessionID
		}
	}
	if sessionID == "" {
		return nil, fmt.Errorf("task %s: %w", input.Task, domain.ErrNoBuildSession)
	}

	// The task must still be reachable on disk to persist the transcript.
	planDir := uc.state.PlanDir(domain.StageBuild, input.Plan)
	_, container, err := uc.reader.FindTask(planDir, input.Task)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", input.Task, err)
	}

	if err := uc.agents.Send(ctx, sessionID, uc.role, input.Message); err != nil {
		return nil, fmt.Errorf("send fix message: %w", err)
	}
	msgs, err := uc.agents.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}

	final := domain.FinalMessage(msgs)
	transcript := domain.RenderTranscript(msgs)
	verdict, remediation := domain.ParseBuildVerdict(final)
	if verdict == domain.BuildFailed {
		if err := uc.state.WriteTaskDoc(input.Plan, container, input.Task, domain.BuildFailedFile(sessionID), transcript); err != nil {
			return nil, err
		}
		uc.logger.Warn(input.Plan, "fix", fmt.Sprintf("%s: session %s still failing", input.Task, sessionID))
		return &FixTaskOutput{SessionID: sessionID, Summary: remediation}, nil
	}

	if err := uc.state.WriteTaskDoc(input.Plan, container, input.Task, domain.BuildSuccessFile(sessionID), transcript); err != nil {
		return nil, err
	}
	if err := uc.state.WriteTaskDoc(input.Plan, container, input.Task, domain.WorkSummaryFile, final); err != nil {
		uc.logger.Warn(input.Plan, "fix", fmt.Sprintf("%s: persist work summary: %v", input.Task, err))
	}
	if err := uc.state.UpdateSessionMeta(input.Plan, func(m *domain.SessionMeta) {
		ts := m.Task(input.Task)
		ts.BuildSessionID = sessionID
		ts.LastError = ""
	}); err != nil {
		uc.logger.Error(input.Plan, "meta", fmt.Sprintf("update session meta for %s: %v", input.Task, err))
	}
	uc.logger.Info(input.Plan, "fix", fmt.Sprintf("%s: session %s fixed", input.Task, sessionID))
	return &FixTaskOutput{SessionID: sessionID, Summary: final, Success: true}, nil
}
