// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContext is returned when a channel operation runs without
	// the collaborators it needs (transport, framer or engine).
	ErrNoContext = errors.New("channel is missing its transport, framer or security context")

	// ErrNoPackage is returned when the configured security package is
	// not registered.
	ErrNoPackage = errors.New("no such security package")

	// ErrTokenTooLarge is returned when a decoded auth token exceeds
	// the maximum the wire format can represent.
	ErrTokenTooLarge = errors.New("auth token exceeds maximum representable length")

	// ErrCancelled is returned when the operator cancels gateway
	// credential entry.  It aborts the whole connection, not just the
	// channel being initialized.
	ErrCancelled = errors.New("gateway credential entry cancelled")
)

// AuthError is a hard failure reported by a security context during a
// negotiation step.  It always aborts the connection.
type AuthError struct {
	Package string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s negotiation failed: %v", e.Package, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
