package domain

import "strings"

// Message is one entry of an agent session transcript.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// TaskSessions records the last-known session state for one task.
// Fields are ordered to minimize memory padding.
type TaskSessions struct {
	BuildSessionID string `json:"buildSessionId,omitempty"`
	TestSessionID  string `json:"testSessionId,omitempty"`
	LastError      string `json:"lastError,omitempty"`
	RetryCount     int    `json:"retryCount"`
}

// SessionMeta is the per-plan session metadata record persisted as
// .session.json, keyed by task relative path. Access is strictly
// read-modify-write; no concurrent-writer safety is provided by this layer.
type SessionMeta struct {
	TaskSessions map[string]*TaskSessions `json:"taskSessions"`
}

// NewSessionMeta returns an empty but valid record.
func NewSessionMeta() *SessionMeta {
	return &SessionMeta{TaskSessions: make(map[string]*TaskSessions)}
}

// Task returns the record for a task key, creating it if absent.
func (m *SessionMeta) Task(key string) *TaskSessions {
	if m.TaskSessions == nil {
		m.TaskSessions = make(map[string]*TaskSessions)
	}
	ts, ok := m.TaskSessions[key]
	if !ok {
		ts = &TaskSessions{}
		m.TaskSessions[key] = ts
	}
	return ts
}

// FailureKind classifies a task failure. Kinds are mutually exclusive and
// remediation strategies key off of them.
type FailureKind string

const (
	// FailToolError means a required input was missing before any session
	// started (typically the build prompt). Remediation: fix the plan's
	// generation step.
	FailToolError FailureKind = "tool_error"

	// FailTaskSession means the build session hit a transport or runtime
	// error. Remediation: retry as-is.
	FailTaskSession FailureKind = "task_session"

	// FailExecute means the build session completed but the agent
	// self-reported inability. Remediation: apply the agent's own
	// remediation text.
	FailExecute FailureKind = "execute_failure"

	// FailTestSession means the verification session hit a transport or
	// runtime error. Remediation: retry as-is.
	FailTestSession FailureKind = "test_session"

	// FailTestVerification means verification completed and reported FAIL.
	// Remediation: change the implementation.
	FailTestVerification FailureKind = "test_verification"
)

// MaxFailureDetail bounds the detail string carried by a FailureReport.
const MaxFailureDetail = 4000

// FailureReport is the self-sufficient description of one task failure.
// It is ephemeral: the transcript files on disk are the durable record.
// BuildSessionID is populated whenever a build session exists, even when
// the failure originated in verification, since remediation targets the
// implementation session.
type FailureReport struct {
	Kind           FailureKind
	TaskPath       string
	SessionID      string // The failing session ("" when no session was created)
	BuildSessionID string
	Detail         string
}

// NewFailureReport builds a report with the detail string bounded.
func NewFailureReport(kind FailureKind, taskPath, sessionID, buildSessionID, detail string) FailureReport {
	if len(detail) > MaxFailureDetail {
		detail = detail[:MaxFailureDetail]
	}
	return FailureReport{
		Kind:           kind,
		TaskPath:       taskPath,
		SessionID:      sessionID,
		BuildSessionID: buildSessionID,
		Detail:         detail,
	}
}

// RenderTranscript formats session messages as a markdown document, one
// "## <role>" section per message. This is the persisted transcript format.
func RenderTranscript(msgs []Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString("## ")
		b.WriteString(m.Role)
		b.WriteString("\n\n")
		b.WriteString(strings.TrimRight(m.Text, "\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

// FinalMessage returns the text of the last transcript message, which is
// the agent's completion response since Send awaits completion.
// Returns "" for an empty transcript.
func FinalMessage(msgs []Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Text
}

// FinalSection extracts the body of the last "## <role>" section from a
// persisted transcript document. Returns the whole document when it carries
// no section headers.
func FinalSection(transcript string) string {
	idx := strings.LastIndex(transcript, "\n## ")
	if idx < 0 {
		if strings.HasPrefix(transcript, "## ") {
			idx = 0
		} else {
			return transcript
		}
	} else {
		idx++ // skip the leading newline
	}
	section := transcript[idx:]
	if nl := strings.Index(section, "\n"); nl >= 0 {
		section = section[nl+1:]
	}
	return strings.TrimSpace(section)
}
