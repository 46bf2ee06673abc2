package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTask builds a minimal accepted sequential task for tree tests.
func newTask(name string, status Container) *Task {
	order, display := ParseEntryName(name)
	kind := KindSequential
	if IsConcurrentGroupName(name) {
		kind = KindConcurrentGroup
	}
	return &Task{
		Name:     name,
		Display:  display,
		Order:    order,
		RelPath:  name,
		Status:   status,
		Kind:     kind,
		Subtasks: &TaskTree{},
	}
}

func completedTask(name string, status Container) *Task {
	t := newTask(name, status)
	t.HasBuildPrompt = true
	t.BuildSuccessID = "sess-" + name
	return t
}

func TestNewTaskTree_NumericOrdering(t *testing.T) {
	// Numeric, not lexicographic: 10 sorts after 9.
	tasks := []*Task{
		newTask("0-a", ContainerAccepted),
		newTask("2-c", ContainerAccepted),
		newTask("10-b", ContainerAccepted),
		newTask("9-d", ContainerAccepted),
	}

	tree := NewTaskTree(tasks)

	require.Len(t, tree.Groups, 4)
	var orders []int
	for _, g := range tree.Groups {
		require.NotNil(t, g.Order)
		orders = append(orders, *g.Order)
	}
	assert.Equal(t, []int{0, 2, 9, 10}, orders)
}

func TestNewTaskTree_SharedOrderFormsOneGroup(t *testing.T) {
	tasks := []*Task{
		newTask("1-a", ContainerAccepted),
		newTask("1-b", ContainerAccepted),
		newTask("2-c", ContainerAccepted),
	}

	tree := NewTaskTree(tasks)

	require.Len(t, tree.Groups, 2)
	assert.Len(t, tree.Groups[0].Tasks, 2)
	assert.Len(t, tree.Groups[1].Tasks, 1)
}

func TestNewTaskTree_UnnumberedCollapseIntoOneTrailingGroup(t *testing.T) {
	tasks := []*Task{
		newTask("zeta", ContainerAccepted),
		newTask("1-a", ContainerAccepted),
		newTask("alpha", ContainerAccepted),
		newTask("omega", ContainerAccepted),
	}

	tree := NewTaskTree(tasks)

	require.Len(t, tree.Groups, 2)
	last := tree.Groups[len(tree.Groups)-1]
	assert.Nil(t, last.Order)
	assert.Len(t, last.Tasks, 3)
}

func TestNewTaskTree_EmptyContainer(t *testing.T) {
	tree := NewTaskTree(nil)
	assert.Empty(t, tree.Groups)
	assert.True(t, tree.AllComplete())
	assert.True(t, tree.Empty())
}

func TestTaskTree_AllComplete_WhenEveryTaskTested(t *testing.T) {
	tasks := []*Task{
		newTask("0-a", ContainerTested),
		newTask("1-b", ContainerTested),
		newTask("c", ContainerTested),
	}

	tree := NewTaskTree(tasks)

	assert.True(t, tree.AllComplete())
	assert.Nil(t, tree.NextGroup())
}

func TestTaskTree_ReadySet_EmptyWhenEarliestGroupBusy(t *testing.T) {
	tasks := []*Task{
		completedTask("0-a", ContainerTested),
		newTask("1-b", ContainerBusy),
		newTask("1-c", ContainerAccepted),
	}

	tree := NewTaskTree(tasks)

	ready := tree.ReadySet()
	require.NotNil(t, ready, "ready set must be empty, not nil")
	assert.Empty(t, ready, "busy sibling blocks the whole group")
}

func TestTaskTree_ReadySet_EarliestIncompleteGroupOnly(t *testing.T) {
	tasks := []*Task{
		newTask("0-a", ContainerAccepted),
		newTask("1-b", ContainerAccepted),
	}

	tree := NewTaskTree(tasks)

	ready := tree.ReadySet()
	require.Len(t, ready, 1)
	assert.Equal(t, "0-a", ready[0].Name)
}

func TestTaskTree_ReadySet_SubtaskGating(t *testing.T) {
	// A task with incomplete subtasks is never ready for its own build;
	// its ready subtasks surface instead.
	parent := newTask("0-parent", ContainerAccepted)
	parent.HasBuildPrompt = true
	child := newTask("0-child", ContainerAccepted)
	child.RelPath = "0-parent/0-child"
	parent.Subtasks = NewTaskTree([]*Task{child})

	tree := NewTaskTree([]*Task{parent})

	ready := tree.ReadySet()
	require.Len(t, ready, 1)
	assert.Equal(t, "0-parent/0-child", ready[0].RelPath)

	// Once the subtask completes, the parent itself becomes ready.
	child.BuildSuccessID = "sess-1"
	ready = tree.ReadySet()
	require.Len(t, ready, 1)
	assert.Equal(t, "0-parent", ready[0].RelPath)
}

func TestTaskTree_ReadySet_ConcurrentGroupExpandsChildren(t *testing.T) {
	group := newTask("1-concurrent_group", ContainerAccepted)
	a := newTask("a", ContainerAccepted)
	a.RelPath = "1-concurrent_group/a"
	b := newTask("b", ContainerAccepted)
	b.RelPath = "1-concurrent_group/b"
	group.Subtasks = NewTaskTree([]*Task{a, b})

	tree := NewTaskTree([]*Task{group})

	ready := tree.ReadySet()
	require.Len(t, ready, 2)
}

func TestGroup_HasBusy_SurfacesNestedBusyState(t *testing.T) {
	g := &Group{Tasks: []*Task{newTask("0-a", ContainerAccepted)}}
	assert.False(t, g.HasBusy())

	child := newTask("b", ContainerBusy)
	parent := newTask("0-p", ContainerAccepted)
	parent.Subtasks = NewTaskTree([]*Task{child})
	g.Tasks = append(g.Tasks, parent)
	assert.True(t, g.HasBusy())
}

func TestTask_Complete_SkippedCountsAsDone(t *testing.T) {
	task := newTask("0-a", ContainerAccepted)
	task.HasTestPrompt = true // Skip overrides even pending verification
	task.Skipped = true
	assert.True(t, task.Complete())
}

func TestTask_Complete_RequiresVerificationWhenPromptPresent(t *testing.T) {
	task := newTask("0-a", ContainerAccepted)
	task.HasBuildPrompt = true
	task.BuildSuccessID = "s1"
	assert.True(t, task.Complete(), "no test prompt means build success is enough")

	task.HasTestPrompt = true
	assert.False(t, task.Complete())

	task.TestSuccessID = "s2"
	assert.True(t, task.Complete())
}

func TestTaskTree_Find(t *testing.T) {
	parent := newTask("0-parent", ContainerAccepted)
	child := newTask("1-child", ContainerAccepted)
	child.RelPath = "0-parent/1-child"
	parent.Subtasks = NewTaskTree([]*Task{child})
	tree := NewTaskTree([]*Task{parent})

	assert.Same(t, child, tree.Find("0-parent/1-child"))
	assert.Nil(t, tree.Find("0-parent/2-missing"))
}
