package domain

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Well-known file names inside a plan directory.
const (
	PlanInstructionFile = "plan.md"
	ReviewHiddenFile    = ".review.md"
	ReviewVisibleFile   = "review.md"
	SessionMetaFile     = ".session.json"
)

// Well-known file names inside a task directory.
const (
	BuildPromptFile = "build.prompt.md"
	TestPromptFile  = "test.prompt.md"
	WorkSummaryFile = "work.md"
	SkippedMarker   = ".skipped"
)

// ConcurrentGroupSuffix is the reserved directory name suffix marking a
// concurrent-group container: <NN>-concurrent_group/.
const ConcurrentGroupSuffix = "concurrent_group"

// orderedNamePattern matches a leading decimal-digit run followed by "-".
var orderedNamePattern = regexp.MustCompile(`^(\d+)-(.+)$`)

// ParseEntryName parses a task directory name. A "<digits>-<rest>" name
// yields (order, rest); anything else yields (nil, name). Order sorts
// numerically, never lexicographically.
func ParseEntryName(name string) (order *int, display string) {
	m := orderedNamePattern.FindStringSubmatch(name)
	if m == nil {
		return nil, name
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Digit run too long for an int; treat as unnumbered.
		return nil, name
	}
	return &n, m[2]
}

// IsConcurrentGroupName reports whether a directory name designates the
// reserved concurrent-group container.
func IsConcurrentGroupName(name string) bool {
	_, display := ParseEntryName(name)
	return display == ConcurrentGroupSuffix
}

// PlanDir returns the directory of a plan within a stage.
func PlanDir(root string, stage Stage, plan string) string {
	return filepath.Join(root, string(stage), plan)
}

// ContainerDir returns a status container directory within a plan.
func ContainerDir(planDir string, c Container) string {
	return filepath.Join(planDir, string(c))
}

// TaskDir returns a task directory within a status container.
func TaskDir(planDir string, c Container, relPath string) string {
	return filepath.Join(ContainerDir(planDir, c), filepath.FromSlash(relPath))
}

// BuildSuccessFile returns the build-success transcript name for a session.
func BuildSuccessFile(sessionID string) string {
	return "task.success." + sessionID + ".md"
}

// BuildFailedFile returns the build-failure transcript name for a session.
func BuildFailedFile(sessionID string) string {
	return "task.failed." + sessionID + ".md"
}

// TestSuccessFile returns the verification-success transcript name.
func TestSuccessFile(sessionID string) string {
	return "test.success." + sessionID + ".md"
}

// TestFailedFile returns the verification-failure transcript name.
func TestFailedFile(sessionID string) string {
	return "test.failed." + sessionID + ".md"
}

// transcriptPattern extracts the session id from a transcript file name.
var transcriptPattern = regexp.MustCompile(`^(task|test)\.(success|failed)\.(.+)\.md$`)

// ParseTranscriptName splits a transcript file name into its phase
// ("task" or "test"), outcome ("success" or "failed") and session id.
func ParseTranscriptName(name string) (phase, outcome, sessionID string, ok bool) {
	m := transcriptPattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// SessionTitle returns the title used when creating an agent session.
func SessionTitle(plan, relPath, phase string) string {
	return plan + "/" + strings.ReplaceAll(relPath, "\\", "/") + " (" + phase + ")"
}
