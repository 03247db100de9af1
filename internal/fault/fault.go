// Package fault defines the pipeline error taxonomy. Components wrap these
// sentinels with fmt.Errorf("...: %w", ...) so callers can classify with
// errors.Is without parsing messages.
package fault

import "errors"

var (
	// ErrInputMissing: a required upstream artifact does not exist.
	ErrInputMissing = errors.New("input missing")
	// ErrInputUnparsable: the upstream artifact exists but no JSON payload
	// could be recovered from it.
	ErrInputUnparsable = errors.New("input unparsable")
	// ErrDerivationFailed: inputs were readable but a derived artifact could
	// not be produced.
	ErrDerivationFailed = errors.New("derivation failed")
	// ErrWriteFailed: an artifact could not be published.
	ErrWriteFailed = errors.New("write failed")
	// ErrDownstreamUnavailable: an external collaborator (search index,
	// broker) refused or timed out.
	ErrDownstreamUnavailable = errors.New("downstream unavailable")
)
