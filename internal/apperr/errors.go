package apperr

import "errors"

// ErrInvalidInput is returned when a resolver address, list entry, or config
// value fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrRequestFailed is returned when fetching a remote resolver list fails at the
// transport level or the server responds with a non-2xx status code.
var ErrRequestFailed = errors.New("request failed")

// ErrNoResolverConfigured is returned when the system has no usable nameserver
// configured. It never aborts a benchmark round; callers log it and continue
// without a current resolver.
var ErrNoResolverConfigured = errors.New("no resolver configured")

// ErrAllCandidatesFailed is reported when every candidate finished a round with
// zero successful probes. The report is still produced, but its winner must not
// be applied.
var ErrAllCandidatesFailed = errors.New("all candidates failed")
