package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/planloop/planloop/internal/domain"
)

// NewPlanInput contains the input for creating a plan.
type NewPlanInput struct {
	Name        string
	Instruction string // plan.md content
	Review      string // hidden review document; optional
}

// NewPlanOutput contains the result of plan creation.
type NewPlanOutput struct {
	PlanDir string
}

// NewPlan scaffolds a fresh plan in the build stage.
type NewPlan struct {
	state  domain.StateManager
	logger domain.Logger
}

// NewNewPlan creates a new NewPlan use case.
func NewNewPlan(state domain.StateManager, logger domain.Logger) *NewPlan {
	return &NewPlan{state: state, logger: logger}
}

// Execute creates the plan layout.
func (uc *NewPlan) Execute(_ context.Context, input NewPlanInput) (*NewPlanOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrEmptyPlanName
	}
	if strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid plan name %q", name)
	}

	if err := uc.state.ScaffoldPlan(name, input.Instruction, input.Review); err != nil {
		return nil, err
	}
	uc.logger.Info(name, "plan", "plan created")
	return &NewPlanOutput{PlanDir: uc.state.PlanDir(domain.StageBuild, name)}, nil
}
