package planfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/planloop/planloop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mkTask creates a task directory with the given files under dir.
func mkTask(t *testing.T, dir, name string, files ...string) string {
	t.Helper()
	taskDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(taskDir, 0o750))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(taskDir, f), []byte("content"), 0o600))
	}
	return taskDir
}

func TestBuild_NumericOrderNotLexicographic(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0-a", "2-c", "10-b", "9-d"} {
		mkTask(t, dir, name, domain.BuildPromptFile)
	}

	tree, err := Build(dir, domain.ContainerAccepted)

	require.NoError(t, err)
	require.Len(t, tree.Groups, 4)
	var orders []int
	for _, g := range tree.Groups {
		require.NotNil(t, g.Order)
		orders = append(orders, *g.Order)
	}
	assert.Equal(t, []int{0, 2, 9, 10}, orders)
}

func TestBuild_UnnumberedSiblingsCollapse(t *testing.T) {
	dir := t.TempDir()
	mkTask(t, dir, "1-first", domain.BuildPromptFile)
	mkTask(t, dir, "alpha", domain.BuildPromptFile)
	mkTask(t, dir, "beta", domain.BuildPromptFile)

	tree, err := Build(dir, domain.ContainerAccepted)

	require.NoError(t, err)
	require.Len(t, tree.Groups, 2)
	trailing := tree.Groups[1]
	assert.Nil(t, trailing.Order)
	assert.Len(t, trailing.Tasks, 2)
}

func TestBuild_EmptyAndMissingContainer(t *testing.T) {
	tree, err := Build(t.TempDir(), domain.ContainerAccepted)
	require.NoError(t, err)
	assert.Empty(t, tree.Groups)

	tree, err = Build(filepath.Join(t.TempDir(), "does-not-exist"), domain.ContainerAccepted)
	require.NoError(t, err)
	assert.Empty(t, tree.Groups)
}

func TestBuild_IgnoresHiddenEntriesAndFiles(t *testing.T) {
	dir := t.TempDir()
	mkTask(t, dir, "0-real", domain.BuildPromptFile)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.md"), []byte("x"), 0o600))

	tree, err := Build(dir, domain.ContainerAccepted)

	require.NoError(t, err)
	require.Len(t, tree.Groups, 1)
	assert.Len(t, tree.Groups[0].Tasks, 1)
}

func TestBuild_ReadsTranscriptsAndMarkers(t *testing.T) {
	dir := t.TempDir()
	mkTask(t, dir, "0-done",
		domain.BuildPromptFile,
		domain.TestPromptFile,
		domain.BuildSuccessFile("s1"),
		domain.TestSuccessFile("s2"),
		domain.WorkSummaryFile,
	)
	mkTask(t, dir, "1-skipped", domain.SkippedMarker)
	mkTask(t, dir, "2-failed", domain.BuildPromptFile, domain.BuildFailedFile("s3"))

	tree, err := Build(dir, domain.ContainerAccepted)

	require.NoError(t, err)
	done := tree.Find("0-done")
	require.NotNil(t, done)
	assert.True(t, done.HasBuildPrompt)
	assert.True(t, done.HasTestPrompt)
	assert.Equal(t, "s1", done.BuildSuccessID)
	assert.Equal(t, "s2", done.TestSuccessID)
	assert.True(t, done.Complete())

	skipped := tree.Find("1-skipped")
	require.NotNil(t, skipped)
	assert.True(t, skipped.Skipped)
	assert.True(t, skipped.Complete())

	failed := tree.Find("2-failed")
	require.NotNil(t, failed)
	assert.Empty(t, failed.BuildSuccessID, "failed transcript is not a success record")
	assert.False(t, failed.Complete())
}

func TestBuild_NestedSubtasksAndConcurrentGroup(t *testing.T) {
	dir := t.TempDir()
	parent := mkTask(t, dir, "0-parent", domain.BuildPromptFile)
	mkTask(t, parent, "0-child", domain.BuildPromptFile)
	mkTask(t, parent, "1-child", domain.BuildPromptFile)

	group := mkTask(t, dir, "1-concurrent_group")
	mkTask(t, group, "alpha", domain.BuildPromptFile)
	mkTask(t, group, "beta", domain.BuildPromptFile)

	tree, err := Build(dir, domain.ContainerAccepted)

	require.NoError(t, err)
	p := tree.Find("0-parent")
	require.NotNil(t, p)
	assert.Equal(t, domain.KindSequential, p.Kind)
	require.Len(t, p.Subtasks.Groups, 2)
	assert.NotNil(t, tree.Find("0-parent/0-child"))

	g := tree.Find("1-concurrent_group")
	require.NotNil(t, g)
	assert.Equal(t, domain.KindConcurrentGroup, g.Kind)
	assert.NotNil(t, tree.Find("1-concurrent_group/alpha"))
	assert.NotNil(t, tree.Find("1-concurrent_group/beta"))

	// Parent with incomplete subtasks is not eligible for its own build.
	ready := tree.ReadySet()
	require.Len(t, ready, 1)
	assert.Equal(t, "0-parent/0-child", ready[0].RelPath)
}

func TestBuild_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	mkTask(t, dir, "0-a", domain.BuildPromptFile, domain.BuildSuccessFile("s1"))
	mkTask(t, dir, "1-b", domain.BuildPromptFile)
	mkTask(t, dir, "free", domain.BuildPromptFile)

	first, err := Build(dir, domain.ContainerAccepted)
	require.NoError(t, err)
	second, err := Build(dir, domain.ContainerAccepted)
	require.NoError(t, err)

	assert.Equal(t, first, second, "building twice from unchanged state must be identical")
}

func TestBuildPlan_MergesContainers(t *testing.T) {
	planDir := t.TempDir()
	mkTask(t, filepath.Join(planDir, "accepted"), "1-b", domain.BuildPromptFile)
	mkTask(t, filepath.Join(planDir, "busy"), "0-a", domain.BuildPromptFile)
	mkTask(t, filepath.Join(planDir, "tested"), "2-c", domain.BuildPromptFile)

	tree, err := BuildPlan(planDir)

	require.NoError(t, err)
	require.Len(t, tree.Groups, 3)
	assert.Equal(t, domain.ContainerBusy, tree.Find("0-a").Status)
	assert.Equal(t, domain.ContainerAccepted, tree.Find("1-b").Status)
	assert.Equal(t, domain.ContainerTested, tree.Find("2-c").Status)

	// The busy entry sits in the earliest incomplete group: nothing is ready.
	ready := tree.ReadySet()
	require.NotNil(t, ready)
	assert.Empty(t, ready)
}

func TestBuildPlan_MissingPlan(t *testing.T) {
	_, err := BuildPlan(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}

func TestLatestTranscript_PrefersSuccess(t *testing.T) {
	dir := t.TempDir()
	taskDir := mkTask(t, dir, "0-a",
		domain.BuildFailedFile("s1"),
		domain.BuildSuccessFile("s2"),
		domain.TestFailedFile("s3"),
	)

	name, ok, err := LatestTranscript(taskDir, "task")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.BuildSuccessFile("s2"), name)

	name, ok, err = LatestTranscript(taskDir, "test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.TestFailedFile("s3"), name)

	_, ok, err = LatestTranscript(mkTask(t, dir, "1-empty"), "task")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindTaskDir(t *testing.T) {
	planDir := t.TempDir()
	mkTask(t, filepath.Join(planDir, "done"), "0-a", domain.BuildPromptFile)

	dir, container, err := FindTaskDir(planDir, "0-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ContainerDone, container)
	assert.Equal(t, filepath.Join(planDir, "done", "0-a"), dir)

	_, _, err = FindTaskDir(planDir, "0-missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
