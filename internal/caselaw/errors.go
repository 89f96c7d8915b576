package caselaw

import "errors"

var (
	// ErrCircuitOpen is returned without a network attempt while the breaker is open
	ErrCircuitOpen = errors.New("case-law API circuit open")

	// ErrRateLimited is returned when 429 responses persist through every retry
	ErrRateLimited = errors.New("case-law API rate limited")

	// ErrTransient wraps network failures and 5xx responses that persisted through every retry
	ErrTransient = errors.New("case-law API transient failure")

	// ErrUnexpectedStatus wraps non-retryable 4xx responses other than 404
	ErrUnexpectedStatus = errors.New("case-law API unexpected status")
)
