package domain

import "errors"

// Domain errors.
var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrPlanExists      = errors.New("plan already exists")
	ErrPlanBusy        = errors.New("plan has busy tasks (abort before resuming)")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNoBuildSession  = errors.New("no build session recorded for task")
	ErrEmptyPlanName   = errors.New("plan name cannot be empty")
	ErrEmptyMessage    = errors.New("message cannot be empty")
	ErrInvalidStage    = errors.New("invalid stage")
	ErrUnknownSection  = errors.New("unknown document section")
	ErrSectionNotFound = errors.New("document section not present")
)
