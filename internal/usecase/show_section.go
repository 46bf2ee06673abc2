package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/planloop/planloop/internal/domain"
)

// Document sections a task exposes to readers.
const (
	SectionFull       = "full"        // the whole build transcript
	SectionFinal      = "final"       // last message of the build transcript
	SectionPrompt     = "prompt"      // build instruction
	SectionTestPrompt = "test-prompt" // verification instruction
	SectionWork       = "work"        // persisted work summary
)

// ShowSectionInput contains the input for reading a task document section.
// Offset and Limit paginate by line; a Limit of zero means unbounded.
type ShowSectionInput struct {
	Plan    string
	Task    string
	Section string // defaults to SectionFull
	Offset  int
	Limit   int
}

// ShowSectionOutput contains the requested slice of the document.
// Fields are ordered to minimize memory padding.
type ShowSectionOutput struct {
	Content    string
	Stage      domain.Stage
	Container  domain.Container
	TotalLines int
}

// ShowSection reads one section of a task's documents, wherever the plan
// and task currently reside. Transcripts can be large; pagination keeps the
// output bounded for CLI consumption.
type ShowSection struct {
	state  domain.StateManager
	reader domain.PlanReader
}

// NewShowSection creates a new ShowSection use case.
func NewShowSection(state domain.StateManager, reader domain.PlanReader) *ShowSection {
	return &ShowSection{state: state, reader: reader}
}

// Execute reads and paginates the section.
func (uc *ShowSection) Execute(_ context.Context, input ShowSectionInput) (*ShowSectionOutput, error) {
	if input.Plan == "" {
		return nil, domain.ErrEmptyPlanName
	}
	stage, err := uc.state.FindPlanStage(input.Plan)
	if err != nil {
		return nil, err
	}
	planDir := uc.state.PlanDir(stage, input.Plan)
	taskDir, container, err := uc.reader.FindTask(planDir, input.Task)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", input.Task, err)
	}

	content, err := uc.readSection(taskDir, input.Section)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(content, "\n")
	total := len(lines)
	start := input.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if input.Limit > 0 && start+input.Limit < total {
		end = start + input.Limit
	}

	return &ShowSectionOutput{
		Content:    strings.Join(lines[start:end], "\n"),
		Stage:      stage,
		Container:  container,
		TotalLines: total,
	}, nil
}

// readSection resolves a section name to document content.
func (uc *ShowSection) readSection(taskDir, section string) (string, error) {
	switch section {
	case "", SectionFull, SectionFinal:
		name, ok, err := uc.reader.LatestTranscript(taskDir, "task")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("no build transcript: %w", domain.ErrSectionNotFound)
		}
		data, _, err := uc.reader.ReadDoc(taskDir, name)
		if err != nil {
			return "", err
		}
		if section == SectionFinal {
			return domain.FinalSection(string(data)), nil
		}
		return string(data), nil
	case SectionPrompt:
		return uc.readDoc(taskDir, domain.BuildPromptFile)
	case SectionTestPrompt:
		return uc.readDoc(taskDir, domain.TestPromptFile)
	case SectionWork:
		return uc.readDoc(taskDir, domain.WorkSummaryFile)
	default:
		return "", fmt.Errorf("section %q: %w", section, domain.ErrUnknownSection)
	}
}

func (uc *ShowSection) readDoc(taskDir, name string) (string, error) {
	data, ok, err := uc.reader.ReadDoc(taskDir, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s: %w", name, domain.ErrSectionNotFound)
	}
	return string(data), nil
}
