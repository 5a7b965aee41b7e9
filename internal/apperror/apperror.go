// Package apperror defines the typed errors the service layer returns.
//
// Every rule violation in the group/membership subsystem surfaces as an
// *AppError wrapping one of the category sentinels below. Handlers map the
// categories to HTTP status codes in exactly one place (writeError) and
// expose the Kind string as the machine-readable error type, so transport
// code never inspects error messages.
package apperror

import (
	"errors"
	"fmt"
)

// Category sentinels. writeError switches on these via errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

// Domain sentinels, one per rule in the membership/ranking subsystem.
// Tests and callers check these with errors.Is; each constructor below
// wraps its sentinel together with the matching category.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrInvalidCode        = errors.New("invalid participation code")
	ErrDuplicateCode      = errors.New("participation code already in use")
	ErrMissingCode        = errors.New("participation code required")
	ErrNotPublic          = errors.New("group is not public")
	ErrNotPrivate         = errors.New("group is not private")
	ErrAlreadyMember      = errors.New("already a member of this group")
	ErrNotAMember         = errors.New("not a member of this group")
	ErrAlreadyInGroup     = errors.New("already in a group")
	ErrOwnerCannotLeave   = errors.New("owner cannot leave group")
	ErrAccessDenied       = errors.New("access denied")
	ErrCodeSpaceExhausted = errors.New("participation code space exhausted")
)

// AppError carries a category (Err), an optional domain sentinel (Sentinel),
// a machine-readable kind, and a human-readable message.
type AppError struct {
	Err      error  // category sentinel (ErrNotFound, ErrConflict, ...)
	Sentinel error  // domain sentinel (ErrAlreadyMember, ...), may be nil
	Kind     string // machine-readable error type, e.g. "already_member"
	Message  string // human-readable error message
	Field    string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both sentinels to errors.Is, so
// errors.Is(err, ErrAlreadyMember) and errors.Is(err, ErrConflict) both hold.
func (e *AppError) Unwrap() []error {
	if e.Sentinel == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Sentinel}
}

func newError(category, sentinel error, kind, message string) *AppError {
	return &AppError{Err: category, Sentinel: sentinel, Kind: kind, Message: message}
}

// ValidationFailed reports a bad request field outside the domain taxonomy.
func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Kind: "validation_error", Message: message, Field: field}
}

// NotFound reports a missing resource outside the domain taxonomy.
func NotFound(resource, id string) *AppError {
	return &AppError{Err: ErrNotFound, Kind: "not_found",
		Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

// Conflict reports a generic uniqueness conflict (e.g. duplicate username).
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Kind: "conflict", Message: message}
}

// InvalidCredentials reports a failed login. The message is deliberately
// identical for unknown usernames and wrong passwords.
func InvalidCredentials() *AppError {
	return &AppError{Err: ErrUnauthorized, Kind: "invalid_credentials",
		Message: "invalid username or password"}
}

// UserNotFound reports that no user exists with the given username.
func UserNotFound(username string) *AppError {
	return newError(ErrNotFound, ErrUserNotFound, "user_not_found",
		fmt.Sprintf("user not found: %s", username))
}

// GroupNotFound reports that no group exists with the given ID.
func GroupNotFound(id string) *AppError {
	return newError(ErrNotFound, ErrGroupNotFound, "group_not_found",
		fmt.Sprintf("group not found: %s", id))
}

// InvalidCode reports that no private group matches the participation code.
func InvalidCode() *AppError {
	return newError(ErrNotFound, ErrInvalidCode, "invalid_code",
		"no group matches this participation code")
}

// DuplicateCode reports that the participation code is already taken.
func DuplicateCode() *AppError {
	return newError(ErrConflict, ErrDuplicateCode, "duplicate_code",
		"this participation code is already in use, choose another")
}

// MissingCode reports a private-group creation without a participation code.
func MissingCode() *AppError {
	return newError(ErrValidation, ErrMissingCode, "missing_code",
		"a participation code is required to create a private group")
}

// NotPublic reports a join-by-ID attempt on a private group.
func NotPublic() *AppError {
	return newError(ErrValidation, ErrNotPublic, "not_public",
		"only public groups can be joined this way")
}

// NotPrivate reports a join-by-code attempt that resolved to a public group.
func NotPrivate() *AppError {
	return newError(ErrValidation, ErrNotPrivate, "not_private",
		"participation codes only apply to private groups")
}

// AlreadyMember reports a join attempt by an existing member of the group.
func AlreadyMember() *AppError {
	return newError(ErrConflict, ErrAlreadyMember, "already_member",
		"already a member of this group")
}

// NotAMember reports a leave attempt by a non-member.
func NotAMember() *AppError {
	return newError(ErrValidation, ErrNotAMember, "not_a_member",
		"not a member of this group")
}

// AlreadyInGroup reports a create/join attempt by a user who already
// belongs to a group. One user, one group.
func AlreadyInGroup() *AppError {
	return newError(ErrConflict, ErrAlreadyInGroup, "already_in_group",
		"already in a group; a user can belong to only one group")
}

// OwnerCannotLeave reports an owner leave attempt while other members remain.
func OwnerCannotLeave() *AppError {
	return newError(ErrValidation, ErrOwnerCannotLeave, "owner_cannot_leave",
		"the owner cannot leave while other members remain; delete the group instead")
}

// AccessDenied reports an operation the caller is not authorized for.
func AccessDenied(message string) *AppError {
	return newError(ErrForbidden, ErrAccessDenied, "access_denied", message)
}

// CodeSpaceExhausted reports that code generation hit its retry cap.
func CodeSpaceExhausted() *AppError {
	return newError(ErrUnavailable, ErrCodeSpaceExhausted, "code_space_exhausted",
		"could not find a free participation code")
}
