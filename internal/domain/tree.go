package domain

import "sort"

// Group is a set of tasks eligible to execute concurrently. Groups are
// totally ordered; tasks within a group have no relative ordering.
type Group struct {
	Order *int // Shared numeric order; nil for the trailing unnumbered group
	Tasks []*Task
}

// Complete returns true if every task in the group is complete.
func (g *Group) Complete() bool {
	for _, t := range g.Tasks {
		if !t.Complete() {
			return false
		}
	}
	return true
}

// HasBusy reports whether any task in the group, or beneath one, is busy.
func (g *Group) HasBusy() bool {
	for _, t := range g.Tasks {
		if hasBusy(t) {
			return true
		}
	}
	return false
}

// TaskTree is an ordered sequence of groups reconstructed from a directory
// layout. It is a pure value: building it never mutates disk state, and the
// scheduler re-derives it from the filesystem on every pass instead of
// caching cursors in memory.
type TaskTree struct {
	Groups []*Group
}

// NewTaskTree groups tasks by numeric order. Tasks sharing a non-nil order
// form one group each; groups sort numerically ascending (0,1,2,...,9,10).
// All unnumbered tasks collapse into exactly one trailing group, omitted
// when there are none.
func NewTaskTree(tasks []*Task) *TaskTree {
	byOrder := make(map[int][]*Task)
	var orders []int
	var unnumbered []*Task

	for _, t := range tasks {
		if t.Order == nil {
			unnumbered = append(unnumbered, t)
			continue
		}
		if _, seen := byOrder[*t.Order]; !seen {
			orders = append(orders, *t.Order)
		}
		byOrder[*t.Order] = append(byOrder[*t.Order], t)
	}
	sort.Ints(orders)

	tree := &TaskTree{}
	for _, o := range orders {
		order := o
		tree.Groups = append(tree.Groups, &Group{Order: &order, Tasks: byOrder[o]})
	}
	if len(unnumbered) > 0 {
		tree.Groups = append(tree.Groups, &Group{Tasks: unnumbered})
	}
	return tree
}

// AllComplete returns true if every task in every group is complete.
// An empty tree is complete.
func (tr *TaskTree) AllComplete() bool {
	if tr == nil {
		return true
	}
	for _, g := range tr.Groups {
		if !g.Complete() {
			return false
		}
	}
	return true
}

// Empty returns true if the tree holds no tasks at all.
func (tr *TaskTree) Empty() bool {
	if tr == nil {
		return true
	}
	for _, g := range tr.Groups {
		if len(g.Tasks) > 0 {
			return false
		}
	}
	return true
}

// NextGroup returns the earliest group containing an incomplete task,
// or nil when the tree is complete.
func (tr *TaskTree) NextGroup() *Group {
	if tr == nil {
		return nil
	}
	for _, g := range tr.Groups {
		if !g.Complete() {
			return g
		}
	}
	return nil
}

// ReadySet returns the tasks that may be dispatched right now: the accepted
// tasks of the earliest incomplete group whose own subtask trees are already
// complete. A task with incomplete subtasks contributes its ready subtasks
// instead (depth-first gating). If the earliest incomplete group holds any
// busy task, the ready set is empty (never nil) because the group must
// settle before anything else is eligible.
func (tr *TaskTree) ReadySet() []*Task {
	ready := []*Task{}
	g := tr.NextGroup()
	if g == nil {
		return ready
	}
	for _, t := range g.Tasks {
		if hasBusy(t) {
			return []*Task{}
		}
	}
	for _, t := range g.Tasks {
		if t.Complete() {
			continue
		}
		ready = append(ready, readyWithin(t)...)
	}
	return ready
}

// readyWithin resolves depth-first gating for one incomplete task.
func readyWithin(t *Task) []*Task {
	if t.Kind == KindConcurrentGroup {
		var ready []*Task
		for _, g := range t.Subtasks.Groups {
			for _, child := range g.Tasks {
				if !child.Complete() {
					ready = append(ready, readyWithin(child)...)
				}
			}
		}
		return ready
	}
	if !t.Subtasks.AllComplete() {
		return t.Subtasks.ReadySet()
	}
	if t.Status != ContainerAccepted {
		return nil
	}
	return []*Task{t}
}

// hasBusy reports whether the task or any task beneath it is busy.
func hasBusy(t *Task) bool {
	if t.Status == ContainerBusy {
		return true
	}
	if t.Subtasks == nil {
		return false
	}
	for _, g := range t.Subtasks.Groups {
		for _, child := range g.Tasks {
			if hasBusy(child) {
				return true
			}
		}
	}
	return false
}

// Walk visits every task in group order, depth-first.
func (tr *TaskTree) Walk(fn func(*Task)) {
	if tr == nil {
		return
	}
	for _, g := range tr.Groups {
		for _, t := range g.Tasks {
			fn(t)
			t.Subtasks.Walk(fn)
		}
	}
}

// Find returns the task with the given relative path, searching the whole
// tree. Returns nil if not found.
func (tr *TaskTree) Find(relPath string) *Task {
	var found *Task
	tr.Walk(func(t *Task) {
		if t.RelPath == relPath {
			found = t
		}
	})
	return found
}
