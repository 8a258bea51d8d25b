// Package crawler launches the external marketplace crawler process and
// decodes its output into canonical records. The crawler itself is a
// black box: a script invoked once per call, judged solely by its exit
// status and the single JSON payload it writes to stdout.
package crawler

import "fmt"

// InfraReason classifies a failure at the process boundary.
type InfraReason string

const (
	ReasonSpawn          InfraReason = "spawn"
	ReasonTimeout        InfraReason = "timeout"
	ReasonOutputTooLarge InfraReason = "output_too_large"
	ReasonExit           InfraReason = "exit"
)

// InfraError is a failure of the crawler process itself (as opposed to a
// failure the crawler reported through its payload). Infrastructure
// failures are never auto-retried.
type InfraError struct {
	Reason InfraReason
	// Hint carries a remediation suggestion for known causes, e.g.
	// "start the remote browser session first".
	Hint   string
	Stderr string
	Err    error
}

func (e *InfraError) Error() string {
	msg := fmt.Sprintf("crawler %s failure", e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *InfraError) Unwrap() error { return e.Err }

// ParseError means the crawler's stdout could not be decoded at all.
// This signals a contract or version mismatch with the crawler script,
// not a user-correctable condition, and is surfaced distinctly from a
// DomainError.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "crawler output did not match the expected payload shape: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// DomainError is a business failure the crawler reported through its
// payload (success=false). The upstream message is surfaced verbatim.
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string { return e.Message }
