// Package usecase contains application business logic.
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/planloop/planloop/internal/domain"
)

// testFailureDetailLines bounds the verification failure detail to the tail
// of the verifier's final message.
const testFailureDetailLines = 20

// ResumePlanInput contains the input for resuming a plan.
type ResumePlanInput struct {
	Plan string
}

// ResumePlanOutput reports the outcome of one resume run. Exactly one of
// Completed, Busy or a non-empty Failures holds when the run ends.
// Fields are ordered to minimize memory padding.
type ResumePlanOutput struct {
	Failures   []domain.FailureReport
	Stage      domain.Stage
	GroupsDone int
	Completed  bool
	Busy       bool
}

// ResumePlan drives a plan forward: group by group it dispatches ready
// entries to the agent service, verifies results and relocates entries
// through the status containers. One invocation runs until the plan
// completes, a group member fails, or stale busy state blocks progress.
// The tree is re-derived from disk before every group; no cursor is cached.
type ResumePlan struct {
	state  domain.StateManager
	reader domain.PlanReader
	agents domain.AgentService
	logger domain.Logger
	clock  domain.Clock
	roles  domain.RolesConfig
	metaMu sync.Mutex // serializes session metadata read-modify-write
}

// NewResumePlan creates a new ResumePlan use case.
func NewResumePlan(state domain.StateManager, reader domain.PlanReader, agents domain.AgentService, logger domain.Logger, clock domain.Clock, roles domain.RolesConfig) *ResumePlan {
	return &ResumePlan{
		state:  state,
		reader: reader,
		agents: agents,
		logger: logger,
		clock:  clock,
		roles:  roles,
	}
}

// Execute runs the scheduler loop for one plan.
func (uc *ResumePlan) Execute(ctx context.Context, input ResumePlanInput) (*ResumePlanOutput, error) {
	if input.Plan == "" {
		return nil, domain.ErrEmptyPlanName
	}
	stage, err := uc.state.FindPlanStage(input.Plan)
	if err != nil {
		return nil, err
	}
	if stage != domain.StageBuild {
		// Already past execution; nothing left to drive.
		return &ResumePlanOutput{Completed: true, Stage: stage}, nil
	}

	planDir := uc.state.PlanDir(domain.StageBuild, input.Plan)
	out := &ResumePlanOutput{Stage: domain.StageBuild}

	for {
		tree, err := uc.reader.BuildPlan(planDir)
		if err != nil {
			return nil, err
		}
		swept, err := uc.sweepComplete(input.Plan, tree)
		if err != nil {
			return nil, err
		}
		if swept > 0 {
			// Relocations happened under us; re-derive the tree.
			continue
		}

		group := tree.NextGroup()
		if group == nil {
			if err := uc.promote(input.Plan); err != nil {
				return nil, err
			}
			out.Completed = true
			out.Stage = domain.StageReview
			return out, nil
		}
		if group.HasBusy() {
			uc.logger.Warn(input.Plan, "scheduler",
				fmt.Sprintf("group %s holds busy entries; abort before resuming", groupLabel(group)))
			out.Busy = true
			return out, nil
		}

		members := incompleteMembers(group)
		for _, t := range members {
			if err := uc.state.MoveTask(input.Plan, t.RelPath, domain.ContainerAccepted, domain.ContainerBusy); err != nil {
				return nil, err
			}
		}
		uc.logger.Info(input.Plan, "scheduler",
			fmt.Sprintf("group %s: dispatching %d entries", groupLabel(group), len(members)))

		started := uc.clock.Now()
		failures := uc.runEntries(ctx, input.Plan, members)
		if len(failures) > 0 {
			// Return every member to accepted. Members that succeeded keep
			// their transcripts, so a retry resumes past them.
			for _, t := range members {
				if err := uc.state.MoveTask(input.Plan, t.RelPath, domain.ContainerBusy, domain.ContainerAccepted); err != nil {
					uc.logger.Error(input.Plan, "scheduler",
						fmt.Sprintf("return %s to accepted: %v", t.RelPath, err))
				}
			}
			uc.recordFailures(input.Plan, failures)
			out.Failures = failures
			return out, nil
		}

		for _, t := range members {
			if err := uc.state.MoveTask(input.Plan, t.RelPath, domain.ContainerBusy, domain.ContainerTested); err != nil {
				return nil, err
			}
			if err := uc.state.MoveTask(input.Plan, t.RelPath, domain.ContainerTested, domain.ContainerDone); err != nil {
				return nil, err
			}
		}
		uc.clearFailures(input.Plan, members)
		out.GroupsDone++
		uc.logger.Info(input.Plan, "scheduler",
			fmt.Sprintf("group %s complete in %s", groupLabel(group), uc.clock.Now().Sub(started).Round(time.Millisecond)))
	}
}

// sweepComplete relocates complete top-level entries resting outside done/
// into it: tested leftovers from a crash, and accepted entries finished out
// of band by a fix. Returns the number of entries moved.
func (uc *ResumePlan) sweepComplete(plan string, tree *domain.TaskTree) (int, error) {
	moved := 0
	for _, g := range tree.Groups {
		for _, t := range g.Tasks {
			if !t.Complete() {
				continue
			}
			if err := uc.state.MoveTask(plan, t.RelPath, t.Status, domain.ContainerDone); err != nil {
				return moved, err
			}
			moved++
		}
	}
	return moved, nil
}

// promote moves the plan to review and reveals the review document.
func (uc *ResumePlan) promote(plan string) error {
	if err := uc.state.MovePlanStage(plan, domain.StageBuild, domain.StageReview); err != nil {
		return err
	}
	if err := uc.state.RevealReview(uc.state.PlanDir(domain.StageReview, plan)); err != nil {
		return err
	}
	uc.logger.Info(plan, "scheduler", "all groups complete; plan promoted to review")
	return nil
}

// runEntries executes entries concurrently and collects every failure.
func (uc *ResumePlan) runEntries(ctx context.Context, plan string, entries []*domain.Task) []domain.FailureReport {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []domain.FailureReport
	)
	for _, t := range entries {
		wg.Add(1)
		go func(t *domain.Task) {
			defer wg.Done()
			if frs := uc.runEntry(ctx, plan, t); len(frs) > 0 {
				mu.Lock()
				failures = append(failures, frs...)
				mu.Unlock()
			}
		}(t)
	}
	wg.Wait()
	return failures
}

// runEntry executes one entry: its subtask tree first (depth-first gating),
// then its own build and verification phases. A concurrent-group container
// runs all of its children at once and has no phases of its own.
func (uc *ResumePlan) runEntry(ctx context.Context, plan string, t *domain.Task) []domain.FailureReport {
	if t.Complete() {
		return nil
	}
	if t.Kind == domain.KindConcurrentGroup {
		var children []*domain.Task
		for _, g := range t.Subtasks.Groups {
			children = append(children, g.Tasks...)
		}
		return uc.runEntries(ctx, plan, children)
	}

	for _, g := range t.Subtasks.Groups {
		if g.Complete() {
			continue
		}
		if frs := uc.runEntries(ctx, plan, g.Tasks); len(frs) > 0 {
			return frs
		}
	}
	if t.Skipped {
		return nil
	}

	buildID, fr := uc.runBuild(ctx, plan, t)
	if fr != nil {
		return []domain.FailureReport{*fr}
	}
	if fr := uc.runVerify(ctx, plan, t, buildID); fr != nil {
		return []domain.FailureReport{*fr}
	}
	return nil
}

// runBuild drives the build phase of one task. A pre-existing success
// transcript short-circuits: build results are durable across retries.
func (uc *ResumePlan) runBuild(ctx context.Context, plan string, t *domain.Task) (string, *domain.FailureReport) {
	if t.BuildComplete() {
		return t.BuildSuccessID, nil
	}
	priorID := uc.recordedBuildSession(plan, t.RelPath)

	prompt, fr := uc.readPrompt(plan, t.RelPath, domain.BuildPromptFile, priorID)
	if fr != nil {
		return "", fr
	}

	sessionID, err := uc.agents.CreateSession(ctx, domain.SessionTitle(plan, t.RelPath, "build"))
	if err != nil {
		fr := domain.NewFailureReport(domain.FailTaskSession, t.RelPath, "", priorID,
			fmt.Sprintf("create session: %v", err))
		return "", &fr
	}
	uc.updateMeta(plan, t.RelPath, func(ts *domain.TaskSessions) { ts.BuildSessionID = sessionID })
	uc.logger.Info(plan, "build", fmt.Sprintf("%s: session %s started", t.RelPath, sessionID))

	if err := uc.agents.Send(ctx, sessionID, uc.roles.Implementer, prompt); err != nil {
		fr := domain.NewFailureReport(domain.FailTaskSession, t.RelPath, sessionID, sessionID,
			fmt.Sprintf("send instruction: %v", err))
		return "", &fr
	}
	msgs, err := uc.agents.ListMessages(ctx, sessionID)
	if err != nil {
		fr := domain.NewFailureReport(domain.FailTaskSession, t.RelPath, sessionID, sessionID,
			fmt.Sprintf("fetch transcript: %v", err))
		return "", &fr
	}

	final := domain.FinalMessage(msgs)
	transcript := domain.RenderTranscript(msgs)
	verdict, remediation := domain.ParseBuildVerdict(final)
	if verdict == domain.BuildFailed {
		if err := uc.state.WriteTaskDoc(plan, domain.ContainerBusy, t.RelPath, domain.BuildFailedFile(sessionID), transcript); err != nil {
			uc.logger.Error(plan, "build", fmt.Sprintf("%s: persist failure transcript: %v", t.RelPath, err))
		}
		fr := domain.NewFailureReport(domain.FailExecute, t.RelPath, sessionID, sessionID, remediation)
		return "", &fr
	}
	if verdict == domain.BuildUnmarked {
		uc.logger.Warn(plan, "build",
			fmt.Sprintf("%s: session %s ended without a verdict marker; treating as success", t.RelPath, sessionID))
	}
	if err := uc.state.WriteTaskDoc(plan, domain.ContainerBusy, t.RelPath, domain.BuildSuccessFile(sessionID), transcript); err != nil {
		fr := domain.NewFailureReport(domain.FailToolError, t.RelPath, sessionID, sessionID,
			fmt.Sprintf("persist transcript: %v", err))
		return "", &fr
	}
	if err := uc.state.WriteTaskDoc(plan, domain.ContainerBusy, t.RelPath, domain.WorkSummaryFile, final); err != nil {
		uc.logger.Warn(plan, "build", fmt.Sprintf("%s: persist work summary: %v", t.RelPath, err))
	}
	uc.logger.Info(plan, "build", fmt.Sprintf("%s: session %s succeeded", t.RelPath, sessionID))
	return sessionID, nil
}

// runVerify drives the verification phase. Tasks without a test prompt, or
// with a durable verification success, need nothing.
func (uc *ResumePlan) runVerify(ctx context.Context, plan string, t *domain.Task, buildID string) *domain.FailureReport {
	if t.VerifyComplete() {
		return nil
	}
	prompt, fr := uc.readPrompt(plan, t.RelPath, domain.TestPromptFile, buildID)
	if fr != nil {
		return fr
	}

	sessionID, err := uc.agents.CreateSession(ctx, domain.SessionTitle(plan, t.RelPath, "verify"))
	if err != nil {
		fr := domain.NewFailureReport(domain.FailTestSession, t.RelPath, "", buildID,
			fmt.Sprintf("create session: %v", err))
		return &fr
	}
	uc.updateMeta(plan, t.RelPath, func(ts *domain.TaskSessions) { ts.TestSessionID = sessionID })

	if err := uc.agents.Send(ctx, sessionID, uc.roles.Verifier, prompt); err != nil {
		fr := domain.NewFailureReport(domain.FailTestSession, t.RelPath, sessionID, buildID,
			fmt.Sprintf("send instruction: %v", err))
		return &fr
	}
	msgs, err := uc.agents.ListMessages(ctx, sessionID)
	if err != nil {
		fr := domain.NewFailureReport(domain.FailTestSession, t.RelPath, sessionID, buildID,
			fmt.Sprintf("fetch transcript: %v", err))
		return &fr
	}

	final := domain.FinalMessage(msgs)
	transcript := domain.RenderTranscript(msgs)
	if !domain.ParseTestVerdict(final) {
		if err := uc.state.WriteTaskDoc(plan, domain.ContainerBusy, t.RelPath, domain.TestFailedFile(sessionID), transcript); err != nil {
			uc.logger.Error(plan, "verify", fmt.Sprintf("%s: persist failure transcript: %v", t.RelPath, err))
		}
		fr := domain.NewFailureReport(domain.FailTestVerification, t.RelPath, sessionID, buildID,
			domain.LastNonBlankLines(final, testFailureDetailLines))
		return &fr
	}
	if err := uc.state.WriteTaskDoc(plan, domain.ContainerBusy, t.RelPath, domain.TestSuccessFile(sessionID), transcript); err != nil {
		fr := domain.NewFailureReport(domain.FailToolError, t.RelPath, sessionID, buildID,
			fmt.Sprintf("persist transcript: %v", err))
		return &fr
	}
	uc.logger.Info(plan, "verify", fmt.Sprintf("%s: verification passed (session %s)", t.RelPath, sessionID))
	return nil
}

// readPrompt reads an instruction file from the busy container. Absence is
// a tool error: the session never starts.
func (uc *ResumePlan) readPrompt(plan, relPath, name, buildSessionID string) (string, *domain.FailureReport) {
	kind := domain.FailToolError
	taskDir := domain.TaskDir(uc.state.PlanDir(domain.StageBuild, plan), domain.ContainerBusy, relPath)
	data, found, err := uc.reader.ReadDoc(taskDir, name)
	if err != nil {
		fr := domain.NewFailureReport(kind, relPath, "", buildSessionID, err.Error())
		return "", &fr
	}
	if !found {
		fr := domain.NewFailureReport(kind, relPath, "", buildSessionID, name+" missing")
		return "", &fr
	}
	return string(data), nil
}

// recordedBuildSession returns the last-known build session id for a task,
// "" when none is recorded.
func (uc *ResumePlan) recordedBuildSession(plan, relPath string) string {
	uc.metaMu.Lock()
	defer uc.metaMu.Unlock()
	meta, err := uc.state.ReadSessionMeta(plan)
	if err != nil {
		return ""
	}
	if ts, ok := meta.TaskSessions[relPath]; ok {
		return ts.BuildSessionID
	}
	return ""
}

// updateMeta applies fn to one task's session record under the meta lock.
func (uc *ResumePlan) updateMeta(plan, relPath string, fn func(*domain.TaskSessions)) {
	uc.metaMu.Lock()
	defer uc.metaMu.Unlock()
	err := uc.state.UpdateSessionMeta(plan, func(m *domain.SessionMeta) {
		fn(m.Task(relPath))
	})
	if err != nil {
		uc.logger.Error(plan, "meta", fmt.Sprintf("update session meta for %s: %v", relPath, err))
	}
}

// recordFailures persists the last error and bumps the retry counter for
// every failed task.
func (uc *ResumePlan) recordFailures(plan string, failures []domain.FailureReport) {
	for _, fr := range failures {
		detail := string(fr.Kind)
		if fr.Detail != "" {
			detail += ": " + fr.Detail
		}
		uc.updateMeta(plan, fr.TaskPath, func(ts *domain.TaskSessions) {
			ts.LastError = detail
			ts.RetryCount++
		})
		uc.logger.Error(plan, "scheduler", fmt.Sprintf("%s failed (%s): %s", fr.TaskPath, fr.Kind, fr.Detail))
	}
}

// clearFailures resets error state for the members of a completed group and
// everything beneath them.
func (uc *ResumePlan) clearFailures(plan string, members []*domain.Task) {
	uc.metaMu.Lock()
	defer uc.metaMu.Unlock()
	err := uc.state.UpdateSessionMeta(plan, func(m *domain.SessionMeta) {
		for _, t := range members {
			for key, ts := range m.TaskSessions {
				if key == t.RelPath || strings.HasPrefix(key, t.RelPath+"/") {
					ts.LastError = ""
					ts.RetryCount = 0
				}
			}
		}
	})
	if err != nil {
		uc.logger.Error(plan, "meta", fmt.Sprintf("clear session meta: %v", err))
	}
}

// incompleteMembers returns the group members still needing work. After the
// busy check these all rest in accepted.
func incompleteMembers(g *domain.Group) []*domain.Task {
	var members []*domain.Task
	for _, t := range g.Tasks {
		if !t.Complete() {
			members = append(members, t)
		}
	}
	return members
}

func groupLabel(g *domain.Group) string {
	if g.Order == nil {
		return "unnumbered"
	}
	return fmt.Sprintf("%d", *g.Order)
}
