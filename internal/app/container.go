// Package app provides the dependency injection container for the application.
package app

import (
	"os"

	"github.com/planloop/planloop/internal/domain"
	"github.com/planloop/planloop/internal/infra/agent"
	"github.com/planloop/planloop/internal/infra/config"
	"github.com/planloop/planloop/internal/infra/logging"
	"github.com/planloop/planloop/internal/infra/planfs"
	"github.com/planloop/planloop/internal/infra/statefs"
	"github.com/planloop/planloop/internal/usecase"
)

// RootEnvVar overrides the plans root directory when set.
const RootEnvVar = "PLANLOOP_ROOT"

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
type Container struct {
	State  domain.StateManager
	Reader domain.PlanReader
	Agents domain.AgentService
	Clock  domain.Clock
	Logger domain.Logger
	Config *domain.Config
	Root   string

	closeLogs func() error
}

// ResolveRoot returns the plans root: the PLANLOOP_ROOT environment
// variable when set, otherwise the given working directory.
func ResolveRoot(cwd string) string {
	if root := os.Getenv(RootEnvVar); root != "" {
		return root
	}
	return cwd
}

// New creates a Container rooted at the given plans directory.
func New(root string) (*Container, error) {
	cfg, err := config.NewLoader(root).Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(root, logging.ParseLevel(cfg.Log.Level))

	return &Container{
		State:     statefs.New(root),
		Reader:    planfs.Reader{},
		Agents:    agent.NewClient(cfg.Service),
		Clock:     domain.RealClock{},
		Logger:    logger,
		Config:    cfg,
		Root:      root,
		closeLogs: logger.Close,
	}, nil
}

// NewWithDeps creates a Container with custom dependencies for testing.
func NewWithDeps(root string, state domain.StateManager, reader domain.PlanReader, agents domain.AgentService, logger domain.Logger, cfg *domain.Config) *Container {
	return &Container{
		State:  state,
		Reader: reader,
		Agents: agents,
		Clock:  domain.RealClock{},
		Logger: logger,
		Config: cfg,
		Root:   root,
	}
}

// Close releases held resources (open log files).
func (c *Container) Close() error {
	if c.closeLogs != nil {
		return c.closeLogs()
	}
	return nil
}

// UseCase factory methods

// NewPlanUseCase returns a new NewPlan use case.
func (c *Container) NewPlanUseCase() *usecase.NewPlan {
	return usecase.NewNewPlan(c.State, c.Logger)
}

// ListPlansUseCase returns a new ListPlans use case.
func (c *Container) ListPlansUseCase() *usecase.ListPlans {
	return usecase.NewListPlans(c.State)
}

// ResumePlanUseCase returns a new ResumePlan use case.
func (c *Container) ResumePlanUseCase() *usecase.ResumePlan {
	return usecase.NewResumePlan(c.State, c.Reader, c.Agents, c.Logger, c.Clock, c.Config.Roles)
}

// FixTaskUseCase returns a new FixTask use case.
func (c *Container) FixTaskUseCase() *usecase.FixTask {
	return usecase.NewFixTask(c.State, c.Reader, c.Agents, c.Logger, c.Config.Roles.Implementer)
}

// AbortPlanUseCase returns a new AbortPlan use case.
func (c *Container) AbortPlanUseCase() *usecase.AbortPlan {
	return usecase.NewAbortPlan(c.State, c.Reader, c.Agents, c.Logger)
}

// ArchivePlanUseCase returns a new ArchivePlan use case.
func (c *Container) ArchivePlanUseCase() *usecase.ArchivePlan {
	return usecase.NewArchivePlan(c.State, c.Logger)
}

// ShowSectionUseCase returns a new ShowSection use case.
func (c *Container) ShowSectionUseCase() *usecase.ShowSection {
	return usecase.NewShowSection(c.State, c.Reader)
}
