// Package planfs reconstructs a plan's task tree from its directory layout.
// Everything here is a pure read: building a tree never mutates disk state,
// so it is safe to call repeatedly and after a crash.
package planfs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/planloop/planloop/internal/domain"
)

// Build reconstructs a TaskTree from one status container directory.
// Hidden entries are ignored. A missing container yields an empty tree;
// absence of any instruction or transcript file inside a task is normal.
func Build(containerDir string, status domain.Container) (*domain.TaskTree, error) {
	tasks, err := readTasks(containerDir, "", status)
	if err != nil {
		return nil, err
	}
	return domain.NewTaskTree(tasks), nil
}

// BuildPlan merges the accepted, busy and tested containers of a plan into
// one working tree. Entries carry the status of the container they reside
// in. Entries already relocated to done/ are complete and excluded.
func BuildPlan(planDir string) (*domain.TaskTree, error) {
	if _, err := os.Stat(planDir); err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("stat plan dir: %w", err)
	}

	var all []*domain.Task
	for _, c := range domain.StatusContainers() {
		tasks, err := readTasks(domain.ContainerDir(planDir, c), "", c)
		if err != nil {
			return nil, err
		}
		all = append(all, tasks...)
	}
	return domain.NewTaskTree(all), nil
}

// readTasks enumerates the immediate subdirectories of dir as tasks.
func readTasks(dir, relBase string, status domain.Container) ([]*domain.Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read container %s: %w", dir, err)
	}

	var tasks []*domain.Task
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		task, err := readTask(filepath.Join(dir, e.Name()), path.Join(relBase, e.Name()), status)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// readTask reads one task directory: name pattern, prompt/transcript
// presence, skip marker and the nested subtask tree.
func readTask(taskDir, relPath string, status domain.Container) (*domain.Task, error) {
	name := filepath.Base(taskDir)
	order, display := domain.ParseEntryName(name)
	kind := domain.KindSequential
	if domain.IsConcurrentGroupName(name) {
		kind = domain.KindConcurrentGroup
	}

	task := &domain.Task{
		Name:    name,
		Display: display,
		Order:   order,
		RelPath: relPath,
		Status:  status,
		Kind:    kind,
	}

	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil, fmt.Errorf("read task %s: %w", taskDir, err)
	}

	var subtasks []*domain.Task
	for _, e := range entries {
		if e.IsDir() {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			sub, err := readTask(filepath.Join(taskDir, e.Name()), path.Join(relPath, e.Name()), status)
			if err != nil {
				return nil, err
			}
			subtasks = append(subtasks, sub)
			continue
		}

		switch e.Name() {
		case domain.BuildPromptFile:
			task.HasBuildPrompt = true
			continue
		case domain.TestPromptFile:
			task.HasTestPrompt = true
			continue
		case domain.SkippedMarker:
			task.Skipped = true
			continue
		}

		if phase, outcome, sessionID, ok := domain.ParseTranscriptName(e.Name()); ok && outcome == "success" {
			switch phase {
			case "task":
				task.BuildSuccessID = sessionID
			case "test":
				task.TestSuccessID = sessionID
			}
		}
	}

	task.Subtasks = domain.NewTaskTree(subtasks)
	return task, nil
}

// ReadDoc reads a named document from a task directory. A missing file is
// reported as (nil, false, nil): absence is normal, not an error.
func ReadDoc(taskDir, name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(taskDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return data, true, nil
}

// LatestTranscript returns the preferred transcript file name in a task
// directory for a phase ("task" or "test"): the success transcript when one
// exists, else the failure one. With several of a kind the ReadDir-last
// (lexicographically greatest session id) wins.
func LatestTranscript(taskDir, phase string) (string, bool, error) {
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read task %s: %w", taskDir, err)
	}

	var success, failed string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p, outcome, _, ok := domain.ParseTranscriptName(e.Name())
		if !ok || p != phase {
			continue
		}
		if outcome == "success" {
			success = e.Name()
		} else {
			failed = e.Name()
		}
	}
	if success != "" {
		return success, true, nil
	}
	if failed != "" {
		return failed, true, nil
	}
	return "", false, nil
}

// Reader adapts the package functions to the domain.PlanReader port.
type Reader struct{}

var _ domain.PlanReader = Reader{}

func (Reader) BuildPlan(planDir string) (*domain.TaskTree, error) {
	return BuildPlan(planDir)
}

func (Reader) FindTask(planDir, relPath string) (string, domain.Container, error) {
	return FindTaskDir(planDir, relPath)
}

func (Reader) ReadDoc(taskDir, name string) ([]byte, bool, error) {
	return ReadDoc(taskDir, name)
}

func (Reader) LatestTranscript(taskDir, phase string) (string, bool, error) {
	return LatestTranscript(taskDir, phase)
}

// FindTaskDir locates a task's directory across the plan's containers,
// done/ included. Returns the directory and its container.
func FindTaskDir(planDir, relPath string) (string, domain.Container, error) {
	containers := append(domain.StatusContainers(), domain.ContainerDone)
	for _, c := range containers {
		dir := domain.TaskDir(planDir, c, relPath)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, c, nil
		}
	}
	return "", "", domain.ErrTaskNotFound
}
