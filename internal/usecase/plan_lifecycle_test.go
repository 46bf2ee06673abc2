package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan_ScaffoldsLayout(t *testing.T) {
	e := newEnv(t)
	uc := NewNewPlan(e.state, testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), NewPlanInput{
		Name:        "demo",
		Instruction: "# demo\n\ndo things",
		Review:      "check results",
	})

	require.NoError(t, err)
	assert.Equal(t, e.state.PlanDir(domain.StageBuild, "demo"), out.PlanDir)
	assert.FileExists(t, filepath.Join(out.PlanDir, domain.PlanInstructionFile))
	assert.FileExists(t, filepath.Join(out.PlanDir, domain.ReviewHiddenFile))
	assert.DirExists(t, filepath.Join(out.PlanDir, string(domain.ContainerAccepted)))
	assert.DirExists(t, filepath.Join(out.PlanDir, string(domain.ContainerDone)))
}

func TestNewPlan_RejectsBadNames(t *testing.T) {
	e := newEnv(t)
	uc := NewNewPlan(e.state, testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), NewPlanInput{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyPlanName)

	_, err = uc.Execute(context.Background(), NewPlanInput{Name: "a/b"})
	assert.Error(t, err)

	_, err = uc.Execute(context.Background(), NewPlanInput{Name: ".hidden"})
	assert.Error(t, err)
}

func TestNewPlan_DuplicateErrors(t *testing.T) {
	e := newEnv(t)
	e.newPlan(t, "demo")
	uc := NewNewPlan(e.state, testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), NewPlanInput{Name: "demo"})
	assert.ErrorIs(t, err, domain.ErrPlanExists)
}

func TestListPlans_AllStages(t *testing.T) {
	e := newEnv(t)
	e.newPlan(t, "alpha")
	e.newPlan(t, "beta")
	require.NoError(t, e.state.MovePlanStage("beta", domain.StageBuild, domain.StageReview))
	uc := NewListPlans(e.state)

	out, err := uc.Execute(context.Background(), ListPlansInput{})

	require.NoError(t, err)
	assert.Equal(t, []PlanSummary{
		{Name: "alpha", Stage: domain.StageBuild},
		{Name: "beta", Stage: domain.StageReview},
	}, out.Plans)
}

func TestListPlans_SingleStage(t *testing.T) {
	e := newEnv(t)
	e.newPlan(t, "alpha")
	uc := NewListPlans(e.state)

	out, err := uc.Execute(context.Background(), ListPlansInput{Stage: domain.StageReview})
	require.NoError(t, err)
	assert.Empty(t, out.Plans)

	_, err = uc.Execute(context.Background(), ListPlansInput{Stage: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStage)
}

func TestArchivePlan_FromAnyStage(t *testing.T) {
	e := newEnv(t)
	e.newPlan(t, "demo")
	require.NoError(t, e.state.MovePlanStage("demo", domain.StageBuild, domain.StageReview))
	uc := NewArchivePlan(e.state, testutil.NopLogger{})

	out, err := uc.Execute(context.Background(), ArchivePlanInput{Plan: "demo"})

	require.NoError(t, err)
	assert.Equal(t, domain.StageReview, out.From)
	stage, err := e.state.FindPlanStage("demo")
	require.NoError(t, err)
	assert.Equal(t, domain.StageArchive, stage)

	// Archiving again is a no-op.
	out, err = uc.Execute(context.Background(), ArchivePlanInput{Plan: "demo"})
	require.NoError(t, err)
	assert.Equal(t, domain.StageArchive, out.From)
}

func TestArchivePlan_MissingPlanErrors(t *testing.T) {
	e := newEnv(t)
	uc := NewArchivePlan(e.state, testutil.NopLogger{})

	_, err := uc.Execute(context.Background(), ArchivePlanInput{Plan: "missing"})
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)
}
