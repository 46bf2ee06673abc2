package usecase

import (
	"context"

	"github.com/planloop/planloop/internal/domain"
)

// ArchivePlanInput contains the input for archiving a plan.
type ArchivePlanInput struct {
	Plan string
}

// ArchivePlanOutput reports the stage the plan was archived from.
type ArchivePlanOutput struct {
	From domain.Stage
}

// ArchivePlan relocates a plan into the terminal archive stage from
// whichever stage it currently occupies. Archiving an archived plan is a
// no-op.
type ArchivePlan struct {
	state  domain.StateManager
	logger domain.Logger
}

// NewArchivePlan creates a new ArchivePlan use case.
func NewArchivePlan(state domain.StateManager, logger domain.Logger) *ArchivePlan {
	return &ArchivePlan{state: state, logger: logger}
}

// Execute archives the plan.
func (uc *ArchivePlan) Execute(_ context.Context, input ArchivePlanInput) (*ArchivePlanOutput, error) {
	if input.Plan == "" {
		return nil, domain.ErrEmptyPlanName
	}
	stage, err := uc.state.FindPlanStage(input.Plan)
	if err != nil {
		return nil, err
	}
	if stage == domain.StageArchive {
		return &ArchivePlanOutput{From: stage}, nil
	}
	if err := uc.state.ArchivePlan(input.Plan, stage); err != nil {
		return nil, err
	}
	uc.logger.Info(input.Plan, "plan", "plan archived from "+string(stage))
	return &ArchivePlanOutput{From: stage}, nil
}
