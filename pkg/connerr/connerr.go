// Copyright 2024-2026 Aiku AI

// Package connerr classifies connection failures where they are observed.
//
// The transport wraps every failure it understands in an [*Error] carrying
// a [Kind]. The supervisor decides retry policy from the kind alone and
// never inspects message text. Errors that reach the supervisor without a
// kind are [KindUnknown] and are not retried.
package connerr

import (
	"errors"
	"fmt"
)

// Kind is the retry class of a failure.
type Kind int

const (
	// KindUnknown is any failure the transport did not classify.
	KindUnknown Kind = iota
	// KindRateLimited covers team migrations and rate limiting.
	KindRateLimited
	// KindTaskStopped is the server asking the client to go away.
	KindTaskStopped
	// KindTransient covers timeouts, refused or dropped connections and
	// TLS failures.
	KindTransient
	// KindAuthFailure means the credentials will never work again.
	KindAuthFailure
	// KindService is any other error reported by the service itself.
	KindService
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTaskStopped:
		return "task_stopped"
	case KindTransient:
		return "transient"
	case KindAuthFailure:
		return "auth_failure"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Code is the service's error code when
// there is one (e.g. "invalid_auth").
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Err != nil:
		return fmt.Sprintf("%s (%s): %v", e.Code, e.Kind, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s (%s)", e.Code, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// CodeOf returns the service error code, if any.
func CodeOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// authCodes are service error codes after which reconnecting is pointless.
var authCodes = map[string]bool{
	"account_inactive": true,
	"invalid_auth":     true,
	"not_authed":       true,
	"token_revoked":    true,
	"token_expired":    true,
}

// rateLimitCodes are service error codes that call for a short fixed wait.
var rateLimitCodes = map[string]bool{
	"migration_in_progress": true,
	"ratelimited":           true,
}

// FromCode classifies a service-reported error code.
func FromCode(code string) *Error {
	switch {
	case authCodes[code]:
		return New(KindAuthFailure, code, nil)
	case rateLimitCodes[code]:
		return New(KindRateLimited, code, nil)
	default:
		return New(KindService, code, nil)
	}
}
