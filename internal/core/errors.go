package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the callable procedures and the REST API.
// Specific errors wrap one of these with fmt.Errorf("%w: ...") so callers can use errors.Is.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
	ErrFailedPrecondition = errors.New("failed precondition")
)

// Session rejections. The dashboard signs the user out on any of them.
var (
	ErrNoTenantMapping = fmt.Errorf("%w: user is not linked to any company", ErrUnauthenticated)
	ErrProfileNotFound = fmt.Errorf("%w: user profile not found in company", ErrUnauthenticated)
	ErrProfileInactive = fmt.Errorf("%w: user profile is inactive", ErrUnauthenticated)
)

var (
	ErrWrongCompany       = fmt.Errorf("%w: caller does not belong to the target company", ErrPermissionDenied)
	ErrOutOfScope         = fmt.Errorf("%w: team is outside the caller's managed teams", ErrPermissionDenied)
	ErrNotSuperAdmin      = fmt.Errorf("%w: only platform super-admins can do this", ErrPermissionDenied)
	ErrEmailAlreadyExists = fmt.Errorf("%w: email is already registered", ErrAlreadyExists)
	ErrCompanyExists      = fmt.Errorf("%w: company id is already taken", ErrAlreadyExists)
	ErrTeamInUse          = fmt.Errorf("%w: team still has members", ErrFailedPrecondition)
	ErrSelfLockout        = fmt.Errorf("%w: admins cannot demote or deactivate themselves", ErrFailedPrecondition)
)

// Code is the wire representation of an error class.
type Code string

const (
	CodeUnauthenticated    Code = "unauthenticated"
	CodeInvalidArgument    Code = "invalid-argument"
	CodePermissionDenied   Code = "permission-denied"
	CodeAlreadyExists      Code = "already-exists"
	CodeNotFound           Code = "not-found"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeInternal           Code = "internal"
)

// CodeOf classifies err. Anything outside the taxonomy is internal.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrFailedPrecondition):
		return CodeFailedPrecondition
	default:
		return CodeInternal
	}
}

// SessionRejectReason returns the machine-readable reason for a rejected session, or "" if err is
// not a session rejection.
func SessionRejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNoTenantMapping):
		return "no-tenant-mapping"
	case errors.Is(err, ErrProfileNotFound):
		return "profile-not-found"
	case errors.Is(err, ErrProfileInactive):
		return "profile-inactive"
	}
	return ""
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
