package application

import (
	"errors"
	"sort"
)

// CommandError is a client-facing failure with a stable wire code.
type CommandError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e == nil {
		return ""
	}
	return "application: " + e.Message
}

func newCommandError(code, message string) *CommandError {
	return &CommandError{Code: code, Message: message}
}

var (
	ErrInvalidDate        = newCommandError("InvalidDate", "dates must be YYYY-MM-DD, start on or before end, and span at most the allowed number of days")
	ErrInvalidWindow      = newCommandError("InvalidWindow", "daily window must be HH:MM and start before it ends")
	ErrInvalidGranularity = newCommandError("InvalidGranularity", "slot length must be 15, 30 or 60 minutes")
	ErrInvalidTimeZone    = newCommandError("InvalidTimeZone", "time zone is not a recognised IANA zone")
	ErrInvalidPin         = newCommandError("InvalidPin", "PIN must be exactly 4 digits")
	ErrRoomNotFound       = newCommandError("RoomNotFound", "room does not exist or has been dissolved")
	ErrNameRequired       = newCommandError("NameRequired", "a name is required to enter the room")
	ErrNameEmpty          = newCommandError("NameEmpty", "name cannot be empty")
	ErrNameTaken          = newCommandError("NameTaken", "that name is already used in this room")
	ErrRoomFull           = newCommandError("RoomFull", "room is full")
	ErrWrongPin           = newCommandError("WrongPin", "PIN is incorrect")
	ErrUnauthorized       = newCommandError("Unauthorized", "not allowed")
	ErrMemberNotFound     = newCommandError("MemberNotFound", "member does not exist")
	ErrTargetNotFound     = newCommandError("TargetNotFound", "target member does not exist")
	ErrCannotKickOwner    = newCommandError("CannotKickOwner", "the room owner cannot be kicked")
	ErrTitleRequired      = newCommandError("TitleRequired", "title cannot be empty")
	ErrInvalidPayload     = newCommandError("InvalidPayload", "request payload is malformed")
	ErrInternal           = newCommandError("Internal", "internal server error")
)

// ValidationError captures field level validation issues. Err is the command
// error the first failing field maps to.
type ValidationError struct {
	Err         *CommandError
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Err != nil {
		return v.Err.Error()
	}
	return "validation failed"
}

// Unwrap exposes the mapped command error to errors.Is.
func (v *ValidationError) Unwrap() error {
	if v == nil || v.Err == nil {
		return nil
	}
	return v.Err
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Fields lists the failing fields in name order.
func (v *ValidationError) Fields() []string {
	if v == nil {
		return nil
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// CodeOf returns the wire code and message for err. Unknown errors map to
// Internal so internals never leak to clients.
func CodeOf(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code, cmdErr.Message
	}
	return ErrInternal.Code, ErrInternal.Message
}
