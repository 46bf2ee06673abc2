package usecase

import (
	"context"
	"testing"

	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/infra/planfs"
	"github.com/planloop/planloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) fixUC() *FixTask {
	return NewFixTask(e.state, planfs.Reader{}, e.agents, testutil.NopLogger{}, "implementer")
}

// failedTask sets up a plan with one failed task and a recorded build
// session, the state a fix targets.
func failedTask(t *testing.T, e *env) string {
	t.Helper()
	e.newPlan(t, "demo")
	e.addTask(t, "demo", domain.ContainerAccepted, "01-core", map[string]string{
		domain.BuildPromptFile: "core work",
	})
	sessionID, err := e.agents.CreateSession(context.Background(), "demo/01-core (build)")
	require.NoError(t, err)
	require.NoError(t, e.state.UpdateSessionMeta("demo", func(m *domain.SessionMeta) {
		ts := m.Task("01-core")
		ts.BuildSessionID = sessionID
		ts.LastError = "execute_failure: schema missing"
	}))
	return sessionID
}

func TestFixTask_SuccessPersistsBuildTranscript(t *testing.T) {
	e := newEnv(t)
	sessionID := failedTask(t, e)
	e.agents.Replies["apply the migration first"] = "migration applied\n\nTASK COMPLETE"

	out, err := e.fixUC().Execute(context.Background(), FixTaskInput{
		Plan:    "demo",
		Task:    "01-core",
		Message: "apply the migration first",
	})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, sessionID, out.SessionID)
	assert.Contains(t, out.Summary, "migration applied")

	files := e.taskFiles(t, domain.StageBuild, "demo", domain.ContainerAccepted, "01-core")
	assert.True(t, hasFile(files, domain.BuildSuccessFile(sessionID)))
	assert.True(t, hasFile(files, domain.WorkSummaryFile))

	meta, err := e.state.ReadSessionMeta("demo")
	require.NoError(t, err)
	assert.Empty(t, meta.TaskSessions["01-core"].LastError)
}

func TestFixTask_StillFailingReportsRemediation(t *testing.T) {
	e := newEnv(t)
	sessionID := failedTask(t, e)
	e.agents.Replies["try again"] = "no luck\n\nTASK FAILED\nneeds the credentials file"

	out, err := e.fixUC().Execute(context.Background(), FixTaskInput{
		Plan:    "demo",
		Task:    "01-core",
		Message: "try again",
	})

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "needs the credentials file", out.Summary)
	files := e.taskFiles(t, domain.StageBuild, "demo", domain.ContainerAccepted, "01-core")
	assert.True(t, hasFile(files, domain.BuildFailedFile(sessionID)))
	assert.False(t, hasFile(files, domain.BuildSuccessFile(sessionID)))
}

func TestFixTask_ExplicitSessionOverridesRecorded(t *testing.T) {
	e := newEnv(t)
	failedTask(t, e)
	other, err := e.agents.CreateSession(context.Background(), "demo/01-core (build)")
	require.NoError(t, err)
	e.agents.DefaultReply = "done\n\nTASK COMPLETE"

	out, errExec := e.fixUC().Execute(context.Background(), FixTaskInput{
		Plan:           "demo",
		Task:           "01-core",
		BuildSessionID: other,
		Message:        "resume in the newer session",
	})

	require.NoError(t, errExec)
	assert.Equal(t, other, out.SessionID)
}

func TestFixTask_Validation(t *testing.T) {
	e := newEnv(t)
	e.newPlan(t, "demo")
	e.addTask(t, "demo", domain.ContainerAccepted, "01-core", nil)

	_, err := e.fixUC().Execute(context.Background(), FixTaskInput{Plan: "demo", Task: "01-core", Message: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = e.fixUC().Execute(context.Background(), FixTaskInput{Plan: "demo", Task: "01-core", Message: "fix it"})
	assert.ErrorIs(t, err, domain.ErrNoBuildSession)

	_, err = e.fixUC().Execute(context.Background(), FixTaskInput{Plan: "demo", Task: "99-ghost", BuildSessionID: "sess-1", Message: "fix it"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
