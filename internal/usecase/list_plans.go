package usecase

import (
	"context"

	"github.com/planloop/planloop/internal/domain"
)

// ListPlansInput contains the input for listing plans.
// An empty Stage lists every stage.
type ListPlansInput struct {
	Stage domain.Stage
}

// PlanSummary is one row of the plan listing.
type PlanSummary struct {
	Name  string
	Stage domain.Stage
}

// ListPlansOutput contains the listed plans in stage order, names sorted
// within each stage.
type ListPlansOutput struct {
	Plans []PlanSummary
}

// ListPlans enumerates plans across lifecycle stages.
type ListPlans struct {
	state domain.StateManager
}

// NewListPlans creates a new ListPlans use case.
func NewListPlans(state domain.StateManager) *ListPlans {
	return &ListPlans{state: state}
}

// Execute lists the plans.
func (uc *ListPlans) Execute(_ context.Context, input ListPlansInput) (*ListPlansOutput, error) {
	stages := domain.AllStages()
	if input.Stage != "" {
		if !input.Stage.IsValid() {
			return nil, domain.ErrInvalidStage
		}
		stages = []domain.Stage{input.Stage}
	}

	out := &ListPlansOutput{Plans: []PlanSummary{}}
	for _, s := range stages {
		names, err := uc.state.ListPlans(s)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			out.Plans = append(out.Plans, PlanSummary{Name: n, Stage: s})
		}
	}
	return out, nil
}
