package issuance

import (
	"github.com/pkg/errors"
)

// ErrorKind classifies issuance failures so callers can map them to client or server faults.
type ErrorKind string

const (
	// InvalidRequest means the issuer or holder identifier is missing. A client fault.
	InvalidRequest ErrorKind = "invalid_request"
	// IdentityToken means the ID token is malformed or lacks the email claim. A client fault.
	IdentityToken ErrorKind = "identity_token"
	// Collaborator means the record store or template storage failed. A server fault.
	Collaborator ErrorKind = "collaborator"
	// DataIntegrity means a resolved record is missing fields the template needs. A server fault.
	DataIntegrity ErrorKind = "data_integrity"
	// Configuration means the service is wired wrong, e.g. a template file is missing.
	Configuration ErrorKind = "configuration"
)

// ErrNoEmail is the cause of the IdentityToken error returned for tokens without an email claim.
var ErrNoEmail = errors.New("ID token does not contain email")

// Error carries the kind of an issuance failure. Its message is the message of the wrapped error.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause see through to the underlying error.
func (e *Error) Cause() error {
	return e.Err
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var issuanceErr *Error
	if errors.As(err, &issuanceErr) {
		return issuanceErr.Kind
	}
	return ""
}

func IsIdentityTokenError(err error) bool {
	return KindOf(err) == IdentityToken
}

func IsCollaboratorFailure(err error) bool {
	return KindOf(err) == Collaborator
}
