// Package statefs implements the status transition layer: atomic directory
// relocations between lifecycle containers, read-modify-write of per-plan
// session metadata, and plan scaffolding. Every move is an os.Rename, so a
// crash can never leave an entry in two containers at once.
package statefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/planloop/planloop/internal/domain"
)

// Ensure Manager implements domain.StateManager.
var _ domain.StateManager = (*Manager)(nil)

// Manager performs filesystem-backed status transitions for plans under a
// single root directory. The session metadata record is the only shared
// mutable resource; a single orchestrator instance per plan is the caller's
// invariant; no cross-process lock is taken here.
type Manager struct {
	root string
}

// New creates a Manager for the given plans root.
func New(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the plans root directory.
func (m *Manager) Root() string {
	return m.root
}

// PlanDir returns the directory of a plan within a stage.
func (m *Manager) PlanDir(stage domain.Stage, plan string) string {
	return domain.PlanDir(m.root, stage, plan)
}

// FindPlanStage locates the stage a plan currently resides in.
func (m *Manager) FindPlanStage(plan string) (domain.Stage, error) {
	for _, s := range domain.AllStages() {
		if info, err := os.Stat(m.PlanDir(s, plan)); err == nil && info.IsDir() {
			return s, nil
		}
	}
	return "", domain.ErrPlanNotFound
}

// MoveTask relocates a task directory between status containers of a plan
// in the build stage. Fails with ErrTaskNotFound if the source is absent.
func (m *Manager) MoveTask(plan, relPath string, from, to domain.Container) error {
	planDir := m.PlanDir(domain.StageBuild, plan)
	src := domain.TaskDir(planDir, from, relPath)
	dst := domain.TaskDir(planDir, to, relPath)

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("task %s not in %s: %w", relPath, from, domain.ErrTaskNotFound)
		}
		return fmt.Errorf("stat task: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move task %s (%s -> %s): %w", relPath, from, to, err)
	}
	return nil
}

// MovePlanStage relocates an entire plan directory between stage
// containers. Creates the destination stage directory if missing.
func (m *Manager) MovePlanStage(plan string, from, to domain.Stage) error {
	src := m.PlanDir(from, plan)
	dst := m.PlanDir(to, plan)

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("plan %s not in %s: %w", plan, from, domain.ErrPlanNotFound)
		}
		return fmt.Errorf("stat plan: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return fmt.Errorf("create stage dir: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move plan %s (%s -> %s): %w", plan, from, to, err)
	}
	return nil
}

// ArchivePlan is the terminal relocation into the archive stage.
func (m *Manager) ArchivePlan(plan string, from domain.Stage) error {
	return m.MovePlanStage(plan, from, domain.StageArchive)
}

// ResetBusyTasks moves every entry currently under busy/ back to
// accepted/ and returns the number moved. Used only by abort.
func (m *Manager) ResetBusyTasks(plan string) (int, error) {
	planDir := m.PlanDir(domain.StageBuild, plan)
	busyDir := domain.ContainerDir(planDir, domain.ContainerBusy)

	entries, err := os.ReadDir(busyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read busy container: %w", err)
	}

	moved := 0
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := m.MoveTask(plan, e.Name(), domain.ContainerBusy, domain.ContainerAccepted); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// ReadSessionMeta reads the per-plan session metadata record. A missing or
// malformed file falls back to an empty-but-valid record rather than
// erroring: the transcripts on disk remain the durable source of truth.
func (m *Manager) ReadSessionMeta(plan string) (*domain.SessionMeta, error) {
	path := filepath.Join(m.PlanDir(domain.StageBuild, plan), domain.SessionMetaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewSessionMeta(), nil
		}
		return nil, fmt.Errorf("read session meta: %w", err)
	}

	var meta domain.SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return domain.NewSessionMeta(), nil
	}
	if meta.TaskSessions == nil {
		meta.TaskSessions = make(map[string]*domain.TaskSessions)
	}
	return &meta, nil
}

// UpdateSessionMeta applies fn to the current record and writes the result
// back atomically (temp file + rename). Read-modify-write only.
func (m *Manager) UpdateSessionMeta(plan string, fn func(*domain.SessionMeta)) error {
	meta, err := m.ReadSessionMeta(plan)
	if err != nil {
		return err
	}
	fn(meta)

	content, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}
	path := filepath.Join(m.PlanDir(domain.StageBuild, plan), domain.SessionMetaFile)
	return writeAtomic(path, content)
}

// RevealReview renames the hidden review document visible. A plan without
// a review document, or with it already revealed, is a no-op.
func (m *Manager) RevealReview(planDir string) error {
	hidden := filepath.Join(planDir, domain.ReviewHiddenFile)
	visible := filepath.Join(planDir, domain.ReviewVisibleFile)

	if _, err := os.Stat(hidden); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat review doc: %w", err)
	}
	if err := os.Rename(hidden, visible); err != nil {
		return fmt.Errorf("reveal review doc: %w", err)
	}
	return nil
}

// ScaffoldPlan creates the initial layout for a new plan in the build
// stage: the instruction document, the hidden review document, an empty
// session metadata record and the four status containers. Fails with
// ErrPlanExists if the plan already exists in any stage.
func (m *Manager) ScaffoldPlan(plan, instruction, review string) error {
	if plan == "" {
		return domain.ErrEmptyPlanName
	}
	if _, err := m.FindPlanStage(plan); err == nil {
		return fmt.Errorf("plan %s: %w", plan, domain.ErrPlanExists)
	}

	planDir := m.PlanDir(domain.StageBuild, plan)
	containers := append(domain.StatusContainers(), domain.ContainerDone)
	for _, c := range containers {
		if err := os.MkdirAll(domain.ContainerDir(planDir, c), 0o750); err != nil {
			return fmt.Errorf("create container %s: %w", c, err)
		}
	}

	if err := writeAtomic(filepath.Join(planDir, domain.PlanInstructionFile), []byte(instruction)); err != nil {
		return err
	}
	if review != "" {
		if err := writeAtomic(filepath.Join(planDir, domain.ReviewHiddenFile), []byte(review)); err != nil {
			return err
		}
	}
	empty, err := json.MarshalIndent(domain.NewSessionMeta(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}
	return writeAtomic(filepath.Join(planDir, domain.SessionMetaFile), empty)
}

// WriteTaskDoc writes a named document into a task directory.
func (m *Manager) WriteTaskDoc(plan string, container domain.Container, relPath, name, content string) error {
	planDir := m.PlanDir(domain.StageBuild, plan)
	dir := domain.TaskDir(planDir, container, relPath)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("task %s not in %s: %w", relPath, container, domain.ErrTaskNotFound)
		}
		return fmt.Errorf("stat task: %w", err)
	}
	return writeAtomic(filepath.Join(dir, name), []byte(content))
}

// ListPlans returns the plan names under a stage, sorted by ReadDir order
// (lexicographic). A missing stage directory yields an empty list.
func (m *Manager) ListPlans(stage domain.Stage) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, string(stage)))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read stage %s: %w", stage, err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// writeAtomic writes content via a temp file and rename.
func writeAtomic(path string, content []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
