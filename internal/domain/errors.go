package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidDutyKey    = errors.New("invalid duty key")
	ErrInvalidDutyCode   = errors.New("invalid duty code")
	ErrUnknownDuty       = errors.New("unknown duty")
	ErrDuplicateDuty     = errors.New("duplicate duty")
	ErrDuplicatePerson   = errors.New("duplicate person")
	ErrInvalidExclusion  = errors.New("invalid exclusion")
	ErrInvalidDateTask   = errors.New("invalid date task")
	ErrInvalidYear       = errors.New("invalid year")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrNoAssignments     = errors.New("no assignments")
	ErrForeignAssignment = errors.New("assignment outside schedule month")
)
