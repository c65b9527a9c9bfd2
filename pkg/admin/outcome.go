package admin

import "github.com/sukryu/pAdmin/pkg/errors"

type OutcomeKind int

const (
	Success OutcomeKind = iota
	ValidationFailure
	Failure
)

// Outcome is the result of a write. A successful outcome carries the record
// and never an error; a failed one never carries a record. Values echoes the
// submitted fields so a failed form can be re-rendered without losing input.
type Outcome struct {
	Kind        OutcomeKind
	Record      map[string]interface{}
	FieldErrors FieldErrors
	Err         *errors.StatusError
	Values      map[string]interface{}
}

func OutcomeSuccess(record map[string]interface{}) Outcome {
	return Outcome{Kind: Success, Record: record}
}

func OutcomeValidationFailure(fieldErrors FieldErrors) Outcome {
	return Outcome{Kind: ValidationFailure, FieldErrors: fieldErrors, Err: errors.ErrValidationFailed}
}

func OutcomeError(err error) Outcome {
	return Outcome{Kind: Failure, Err: errors.AsStatus(err)}
}

func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Message is the user-facing error text, empty on success.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	if o.Err.Reason != "" && o.Kind == Failure {
		return o.Err.Reason
	}
	return o.Err.Message
}

func (o Outcome) withValues(values map[string]interface{}) Outcome {
	o.Values = values
	return o
}
