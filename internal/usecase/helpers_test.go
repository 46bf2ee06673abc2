package usecase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/infra/planfs"
	"github.com/planloop/planloop/internal/infra/statefs"
	"github.com/planloop/planloop/internal/testutil"
	"github.com/stretchr/testify/require"
)

// env bundles a real plans root with a mock agent service. The scheduler is
// exercised against the actual filesystem layers; only the agent boundary
// is scripted.
type env struct {
	state  *statefs.Manager
	agents *testutil.MockAgentService
	root   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()
	return &env{
		state:  statefs.New(root),
		agents: testutil.NewMockAgentService(),
		root:   root,
	}
}

func (e *env) resumeUC() *ResumePlan {
	roles := domain.RolesConfig{Implementer: "implementer", Verifier: "verifier"}
	return NewResumePlan(e.state, planfs.Reader{}, e.agents, testutil.NopLogger{}, domain.RealClock{}, roles)
}

func (e *env) newPlan(t *testing.T, plan string) {
	t.Helper()
	require.NoError(t, e.state.ScaffoldPlan(plan, "# "+plan, "review checklist"))
}

// addTask creates a task directory in a container with the given files.
func (e *env) addTask(t *testing.T, plan string, c domain.Container, relPath string, files map[string]string) {
	t.Helper()
	dir := domain.TaskDir(e.state.PlanDir(domain.StageBuild, plan), c, relPath)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
}

// taskFiles lists the file names in a task directory under a stage.
func (e *env) taskFiles(t *testing.T, stage domain.Stage, plan string, c domain.Container, relPath string) []string {
	t.Helper()
	dir := domain.TaskDir(e.state.PlanDir(stage, plan), c, relPath)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// containerEntries lists the entry names in a status container.
func (e *env) containerEntries(t *testing.T, stage domain.Stage, plan string, c domain.Container) []string {
	t.Helper()
	dir := domain.ContainerDir(e.state.PlanDir(stage, plan), c)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}
	}
	require.NoError(t, err)
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

func hasFile(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func hasPrefixFile(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
