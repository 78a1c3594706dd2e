package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal server error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given param is not valid")
	// ErrInvalidSubject will throw if a subject has an empty id or unknown kind
	ErrInvalidSubject = errors.New("invalid interaction subject")
	// ErrUnauthorized will throw if the caller did not present an identity
	ErrUnauthorized = errors.New("caller is not authenticated")
	// ErrSelfFollow will throw on an attempt to follow one's own account
	ErrSelfFollow = errors.New("cannot follow your own account")
	// ErrGatewayFailure wraps any remote call that did not succeed
	ErrGatewayFailure = errors.New("interaction gateway call failed")
	// ErrCacheMiss will throw if requested data is not in the snapshot store
	ErrCacheMiss = errors.New("requested data is not in cache")
)
