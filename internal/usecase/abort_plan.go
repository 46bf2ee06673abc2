package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/planloop/planloop/internal/domain"
)

// AbortPlanInput contains the input for aborting a plan's execution.
type AbortPlanInput struct {
	Plan string
}

// AbortPlanOutput contains the result of an abort.
type AbortPlanOutput struct {
	AbortedSessions []string
	ResetCount      int
}

// AbortPlan force-terminates every known active session of a plan and
// returns all busy entries to accepted, clearing the way for a fresh resume.
// Session aborts are best-effort; the container reset is the authoritative
// part.
type AbortPlan struct {
	state  domain.StateManager
	reader domain.PlanReader
	agents domain.AgentService
	logger domain.Logger
}

// NewAbortPlan creates a new AbortPlan use case.
func NewAbortPlan(state domain.StateManager, reader domain.PlanReader, agents domain.AgentService, logger domain.Logger) *AbortPlan {
	return &AbortPlan{
		state:  state,
		reader: reader,
		agents: agents,
		logger: logger,
	}
}

// Execute aborts active sessions and resets busy entries.
func (uc *AbortPlan) Execute(ctx context.Context, input AbortPlanInput) (*AbortPlanOutput, error) {
	if input.Plan == "" {
		return nil, domain.ErrEmptyPlanName
	}
	stage, err := uc.state.FindPlanStage(input.Plan)
	if err != nil {
		return nil, err
	}
	if stage != domain.StageBuild {
		// Nothing can be in flight outside the build stage.
		return &AbortPlanOutput{AbortedSessions: []string{}}, nil
	}

	planDir := uc.state.PlanDir(domain.StageBuild, input.Plan)
	tree, err := uc.reader.BuildPlan(planDir)
	if err != nil {
		return nil, err
	}
	meta, err := uc.state.ReadSessionMeta(input.Plan)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(meta.TaskSessions))
	for key := range meta.TaskSessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	aborted := []string{}
	for _, key := range keys {
		ts := meta.TaskSessions[key]
		t := tree.Find(key)
		if t == nil {
			// Already relocated to done; its sessions finished.
			continue
		}
		if ts.BuildSessionID != "" && t.BuildSuccessID != ts.BuildSessionID {
			aborted = append(aborted, uc.abort(ctx, input.Plan, key, ts.BuildSessionID)...)
		}
		if ts.TestSessionID != "" && t.TestSuccessID != ts.TestSessionID {
			aborted = append(aborted, uc.abort(ctx, input.Plan, key, ts.TestSessionID)...)
		}
	}

	count, err := uc.state.ResetBusyTasks(input.Plan)
	if err != nil {
		return nil, err
	}
	uc.logger.Info(input.Plan, "abort",
		fmt.Sprintf("aborted %d sessions, reset %d busy entries", len(aborted), count))
	return &AbortPlanOutput{AbortedSessions: aborted, ResetCount: count}, nil
}

// abort terminates one session, returning its id on success.
func (uc *AbortPlan) abort(ctx context.Context, plan, task, sessionID string) []string {
	if err := uc.agents.Abort(ctx, sessionID); err != nil {
		uc.logger.Warn(plan, "abort", fmt.Sprintf("%s: abort session %s: %v", task, sessionID, err))
		return nil
	}
	return []string{sessionID}
}
