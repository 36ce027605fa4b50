package fetcher

import (
	"fmt"
	"time"
)

// StateKind enumerates the states of one retrieval.
type StateKind int

const (
	// StateIdle is the state before the first attempt.
	StateIdle StateKind = iota
	// StateAttempting means attempt number State.Attempt is about to run.
	StateAttempting
	// StateBackoff means State.Attempt attempts have failed and the fetcher
	// waits State.Delay before deciding what comes next.
	StateBackoff
	// StateExhausted is terminal: the page is unavailable.
	StateExhausted
	// StateSucceeded is terminal: the page body was retrieved.
	StateSucceeded
)

// String returns the state name.
func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateExhausted:
		return "exhausted"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// State is a point in the retry state machine.
type State struct {
	Kind StateKind

	// Attempt is the 1-based number of the current attempt in
	// StateAttempting, and the number of attempts made so far otherwise.
	Attempt int

	// Delay is the backoff duration in StateBackoff.
	Delay time.Duration
}

// String implements fmt.Stringer.
func (s State) String() string {
	switch s.Kind {
	case StateAttempting:
		return fmt.Sprintf("attempting(%d)", s.Attempt)
	case StateBackoff:
		return fmt.Sprintf("backoff(%s)", s.Delay)
	default:
		return s.Kind.String()
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s.Kind == StateExhausted || s.Kind == StateSucceeded
}

// OutcomeKind classifies the result of one attempt.
type OutcomeKind int

const (
	// OutcomeNone is used for transitions that are not driven by an attempt,
	// such as leaving Idle or finishing a backoff wait.
	OutcomeNone OutcomeKind = iota
	// OutcomeOK is a 200 response.
	OutcomeOK
	// OutcomeNotFound is a 404 response. It is never retried.
	OutcomeNotFound
	// OutcomeRateLimited is a 429 response.
	OutcomeRateLimited
	// OutcomeStatus is any other unexpected status code.
	OutcomeStatus
	// OutcomeTransport is a generic transport failure: timeouts,
	// protocol errors, truncated bodies.
	OutcomeTransport
	// OutcomeNetwork is a network-level failure: DNS, refused or reset
	// connections, socket errors.
	OutcomeNetwork
	// OutcomeCancelled means the caller's context is done.
	OutcomeCancelled
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not found"
	case OutcomeRateLimited:
		return "rate limited"
	case OutcomeStatus:
		return "unexpected status"
	case OutcomeTransport:
		return "transport error"
	case OutcomeNetwork:
		return "network error"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one attempt.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Err        error
}

// Policy holds the retry parameters. Next is pure, so a Policy value can be
// shared between goroutines.
type Policy struct {
	// MaxAttempts is the number of attempts per URL.
	MaxAttempts int

	// RateLimitStep is multiplied by the attempt number after a 429.
	RateLimitStep time.Duration

	// StatusStep is multiplied by the attempt number after other statuses.
	StatusStep time.Duration

	// TransportStep is multiplied by the attempt number after generic
	// transport errors.
	TransportStep time.Duration

	// NetworkStep is multiplied by the attempt number after network errors.
	NetworkStep time.Duration
}

// MaxRetries is the default number of attempts per URL.
const MaxRetries = 3

// DefaultPolicy returns the marketplace retry schedule: 429 waits 5s, 10s,
// 15s; other statuses and generic errors wait 2s, 4s, 6s; network errors
// wait 3s, 6s, 9s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   MaxRetries,
		RateLimitStep: 5 * time.Second,
		StatusStep:    2 * time.Second,
		TransportStep: 2 * time.Second,
		NetworkStep:   3 * time.Second,
	}
}

// Next returns the state that follows s given outcome o.
//
// Attempting(n) moves to Succeeded on OK, to Exhausted on NotFound or
// Cancelled, and to Backoff otherwise. Backoff moves to Attempting(n+1)
// while attempts remain, else to Exhausted. Terminal states never change.
func (p Policy) Next(s State, o Outcome) State {
	if s.Terminal() {
		return s
	}
	if o.Kind == OutcomeCancelled {
		return State{Kind: StateExhausted, Attempt: s.Attempt}
	}

	switch s.Kind {
	case StateIdle:
		if p.MaxAttempts <= 0 {
			return State{Kind: StateExhausted}
		}
		return State{Kind: StateAttempting, Attempt: 1}

	case StateAttempting:
		n := s.Attempt
		switch o.Kind {
		case OutcomeOK:
			return State{Kind: StateSucceeded, Attempt: n}
		case OutcomeNotFound:
			return State{Kind: StateExhausted, Attempt: n}
		case OutcomeRateLimited:
			return State{Kind: StateBackoff, Attempt: n, Delay: p.RateLimitStep * time.Duration(n)}
		case OutcomeStatus:
			return State{Kind: StateBackoff, Attempt: n, Delay: p.StatusStep * time.Duration(n)}
		case OutcomeNetwork:
			return State{Kind: StateBackoff, Attempt: n, Delay: p.NetworkStep * time.Duration(n)}
		default:
			return State{Kind: StateBackoff, Attempt: n, Delay: p.TransportStep * time.Duration(n)}
		}

	case StateBackoff:
		if s.Attempt >= p.MaxAttempts {
			return State{Kind: StateExhausted, Attempt: s.Attempt}
		}
		return State{Kind: StateAttempting, Attempt: s.Attempt + 1}
	}

	return State{Kind: StateExhausted, Attempt: s.Attempt}
}
