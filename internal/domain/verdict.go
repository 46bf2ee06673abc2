package domain

import "strings"

// Build verdict markers the implementation agent is instructed to emit as a
// bare line in its final message.
const (
	BuildSuccessMarker = "TASK COMPLETE"
	BuildFailureMarker = "TASK FAILED"
)

// TestPassToken is the literal verification verdict token. Anything other
// than a PASS verdict is a FAIL.
const TestPassToken = "PASS"

// BuildVerdict is the parsed outcome of a build session's final message.
type BuildVerdict int

const (
	// BuildUnmarked means no marker was found. Callers treat this as a
	// success for backward compatibility, but it is a weak signal worth
	// logging.
	BuildUnmarked BuildVerdict = iota
	BuildSucceeded
	BuildFailed
)

// ParseBuildVerdict scans the final agent message for a structured
// success/failure marker. On failure, remediation carries the agent's own
// remediation text: everything after the failure marker line.
func ParseBuildVerdict(finalMessage string) (verdict BuildVerdict, remediation string) {
	lines := strings.Split(finalMessage, "\n")
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case BuildSuccessMarker:
			return BuildSucceeded, ""
		case BuildFailureMarker:
			rest := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			return BuildFailed, rest
		}
	}
	return BuildUnmarked, ""
}

// ParseTestVerdict scans the final agent message for a literal PASS/FAIL
// token. The last bare PASS or FAIL line wins; a message carrying neither
// is a FAIL.
func ParseTestVerdict(finalMessage string) bool {
	lines := strings.Split(finalMessage, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		switch strings.TrimSpace(lines[i]) {
		case TestPassToken:
			return true
		case "FAIL":
			return false
		}
	}
	return false
}

// LastNonBlankLines returns the last n non-blank lines of s, joined by
// newlines. Used to bound verification failure details.
func LastNonBlankLines(s string, n int) string {
	var kept []string
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		kept = append(kept, lines[i])
	}
	// Reverse back into document order.
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "\n")
}
