package core

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError is returned when a lookup by id, name or odata id yields no
// match although exactly one record was required.
type NotFoundError struct {
	Resource string
	Query    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource '%s' not found for params '%s'", e.Resource, e.Query)
}

// TooManyRecordsError is returned when a lookup yields more than one match
// where exactly one was required. Multiplicity is never resolved by picking
// the first record.
type TooManyRecordsError struct {
	ResourcePath string
	Params       Params
}

// Implement the Error method to satisfy the error interface
func (e *TooManyRecordsError) Error() string {
	return fmt.Sprintf("too many records found for resource '%s' with params '%v'", e.ResourcePath, e.Params)
}

// ValidationError indicates malformed construction input, typically a record
// missing required identity fields such as "id" or "name".
type ValidationError struct {
	Resource string
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for resource '%s': %s", e.Resource, e.Message)
}

// AttributeNotFoundError indicates access to a field that is absent from the
// current local snapshot of a bound model. The field may genuinely not exist
// or may simply not have been fetched yet; callers that are unsure should
// Reload first.
type AttributeNotFoundError struct {
	Resource  string
	Attribute string
}

func (e *AttributeNotFoundError) Error() string {
	return fmt.Sprintf("attribute '%s' not found on resource '%s'", e.Attribute, e.Resource)
}

// DestroyedError indicates use of a bound model after Delete has succeeded.
type DestroyedError struct {
	Resource string
	Name     string
}

func (e *DestroyedError) Error() string {
	return fmt.Sprintf("resource '%s' (%s) has been deleted and can no longer be used", e.Name, e.Resource)
}

// TimeoutError is returned by bounded polling operations when the awaited
// condition did not become true before the deadline. LastState carries the
// last observed value of the polled condition for diagnostics.
type TimeoutError struct {
	Resource  string
	Condition string
	Elapsed   time.Duration
	LastState string
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %v waiting for %s on resource '%s'", e.Elapsed, e.Condition, e.Resource)
	if e.LastState != "" {
		msg += fmt.Sprintf(" (last state: %s)", e.LastState)
	}
	return msg
}

// AlreadyExistsError is returned by the idempotent create workflows when a
// resource with the requested name already exists and replace was not
// requested. The existing resource is left untouched.
type AlreadyExistsError struct {
	Resource string
	Name     string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%s' already exists (use replace to supersede it)", e.Resource, e.Name)
}

func IsNotFoundErr(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

func IgnoreNotFound(val Record, err error) (Record, error) {
	if IsNotFoundErr(err) {
		return val, nil
	}
	return val, err
}

func IsTooManyRecordsErr(err error) bool {
	var tooManyRecordsErr *TooManyRecordsError
	return errors.As(err, &tooManyRecordsErr)
}

func IsValidationErr(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

func IsAttributeNotFoundErr(err error) bool {
	var aErr *AttributeNotFoundError
	return errors.As(err, &aErr)
}

func IsDestroyedErr(err error) bool {
	var dErr *DestroyedError
	return errors.As(err, &dErr)
}

func IsTimeoutErr(err error) bool {
	var tErr *TimeoutError
	return errors.As(err, &tErr)
}

func IsAlreadyExistsErr(err error) bool {
	var aeErr *AlreadyExistsError
	return errors.As(err, &aeErr)
}
