package services

import "errors"

// Caller-visible outcomes of the signing workflow. Handlers map these
// onto HTTP statuses; anything else bubbling out of a workflow method
// is an internal failure the operator surface may report verbatim.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadySigned = errors.New("document already signed")
	ErrLinkExpired   = errors.New("signing link expired")
	ErrInvalidPage   = errors.New("page index out of range")
	ErrNotSigned     = errors.New("document not signed yet")
)
