package pipeline

import (
	"errors"
	"fmt"
)

// Stage names a pipeline step. It is attached to every failure.
type Stage string

const (
	StageValidate  Stage = "validate"
	StageFetch     Stage = "fetch"
	StageNormalize Stage = "normalize"
	StageClassify  Stage = "classify"
	StageEnrich    Stage = "enrich"
	StageGuide     Stage = "guide"
	StageCompose   Stage = "compose"
)

// FetchError means the transaction source was unreachable or returned an
// error payload.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch transactions: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ServiceError means the language-model call itself failed (network, auth,
// quota). It is never retried.
type ServiceError struct {
	Stage Stage
	Err   error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Stage, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseError means the model answered but no JSON object of the expected shape
// could be recovered from the text. Raw holds the full response.
type ParseError struct {
	Stage Stage
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse model response: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means caller input was absent or empty. It is raised before
// any external call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StageError is returned by the driver. It names the step that failed and
// wraps the underlying error unchanged.
type StageError struct {
	Step  int
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline step %d (%s) failed: %v", e.Step, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FailedStage returns the stage recorded in err, or "" if err did not come
// from the driver.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
