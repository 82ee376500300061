//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package mpc

import (
	"errors"
	"fmt"
)

// Error taxonomy. All fatal conditions terminate the enclosing run
// with no partial output; there is no best-effort mode.
var (
	// ErrSetup reports an incomplete or malformed handshake or
	// seed exchange before any computation step.
	ErrSetup = errors.New("mpc: setup failed")

	// ErrViolation reports a wrong-length or malformed peer
	// message or a failed verification check. Post-violation
	// protocol state is undefined, so no recovery is attempted.
	ErrViolation = errors.New("mpc: protocol violation")

	// ErrContract reports misuse of the protocol state machine,
	// such as finalizing more results than were queued or
	// finalizing before the exchange.
	ErrContract = errors.New("mpc: contract violation")

	// ErrExhausted reports an empty preprocessing buffer that
	// could not be refilled. It signals a provisioning problem,
	// not an attack.
	ErrExhausted = errors.New("mpc: preprocessing buffer exhausted")

	// ErrNotSupported reports a contract operation the active
	// scheme does not implement.
	ErrNotSupported = errors.New("mpc: operation not supported")

	// ErrBound reports truncation bound violations past the
	// configured threshold.
	ErrBound = errors.New("mpc: truncation bound exceeded")
)

// Violationf creates a protocol violation error.
func Violationf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrViolation, fmt.Sprintf(format, a...))
}

// Setupf creates a setup error.
func Setupf(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrSetup, fmt.Sprintf(format, a...))
}
