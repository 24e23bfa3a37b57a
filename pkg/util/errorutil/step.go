package errorutil

import (
	"errors"
	"fmt"
)

// Steps of the multi-step console flows.
const (
	StepClaim          = "claim"
	StepAssignTeam     = "assign_team"
	StepUploadEvidence = "upload_evidence"
	StepSetState       = "set_state"
)

// StepError records which step of a multi-step flow failed. Steps that
// completed before it are not undone.
type StepError struct {
	Step string
	// Completed lists the steps that succeeded before Step failed.
	Completed []string
	Err       error
}

func (e *StepError) Error() string {
	if len(e.Completed) > 0 {
		return fmt.Sprintf("%s failed after %v succeeded: %v", e.Step, e.Completed, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err with the failing step name.
func NewStepError(step string, err error, completed ...string) error {
	return &StepError{Step: step, Completed: completed, Err: err}
}

// FailedStep returns the failing step recorded in err, if any.
func FailedStep(err error) (string, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Step, true
	}
	return "", false
}
