// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package common

import (
	"github.com/golang-auth/go-rpch/pkg/loggable"
)

// AuthVerdict is the outcome of a single negotiation step that did not
// hard-fail.
type AuthVerdict int

const (
	// VerdictContinue means the engine produced (or is about to expose) an
	// output token that must be carried to the gateway.
	VerdictContinue AuthVerdict = iota

	// VerdictDone means the negotiation finished and there is nothing
	// left to send.
	VerdictDone
)

// ContextFlag requests security properties from an engine when the
// client context is set up.
type ContextFlag uint32

const (
	FlagConfidentiality ContextFlag = 1 << iota // message protection must be available
	FlagMutualAuth                              // the gateway must prove its identity too
)

// Identity carries the gateway credentials handed to an engine.  The
// password is kept as a byte slice so that Wipe can destroy the secret
// once the engine has taken what it needs.
type Identity struct {
	User     string
	Domain   string
	Password []byte
}

// NewIdentity copies the secret so the caller's string is never retained.
func NewIdentity(user, domain, password string) *Identity {
	return &Identity{
		User:     user,
		Domain:   domain,
		Password: []byte(password),
	}
}

// Wipe zeroes the secret material.  Safe to call more than once.
func (i *Identity) Wipe() {
	if i == nil {
		return
	}

	for n := range i.Password {
		i.Password[n] = 0
	}
	i.Password = nil
}

// ChannelBinding is the TLS channel-binding token that ties a
// negotiation to one specific TLS session (RFC 5929).  Data holds the
// application data, eg. "tls-server-end-point:" followed by the
// certificate hash.
type ChannelBinding struct {
	Data     []byte
	Critical bool // fail setup if the engine cannot honour the binding
}

// ContextConfig is everything an engine needs to set up a client-side
// security context for the gateway.
type ContextConfig struct {
	Logger      loggable.Loggable
	TargetClass string    // service class, always "HTTP" for a gateway
	TargetHost  string    // gateway hostname
	Identity    *Identity // nil negotiates anonymously / with default credentials
	Flags       ContextFlag
	Binding     *ChannelBinding
}

// SecurityContext is the negotiation engine a channel driver steps.  It
// is owned by the gateway connection and borrowed by the channel; the
// driver never shares one context between channels.
//
// Callers alternate Authenticate with GiveInputToken: each call to
// Authenticate consumes at most one input token and produces at most
// one output token.  Once IsComplete reports true it never reverts.
type SecurityContext interface {
	// SetupClient configures the engine for the client role against
	// the gateway described by cfg.
	SetupClient(cfg ContextConfig) error

	// Authenticate runs one negotiation step.  A non-nil error is a
	// hard failure and aborts the connection.
	Authenticate() (AuthVerdict, error)

	// HaveOutputToken reports whether a token is waiting to be sent.
	HaveOutputToken() bool

	// TakeOutputToken hands over the pending token, clearing it.
	TakeOutputToken() []byte

	// GiveInputToken transfers ownership of a token received from the
	// gateway to the engine.  The caller must not reuse the slice.
	GiveInputToken(token []byte)

	// IsComplete reports whether negotiation reached its terminal
	// state.  Monotonic: once true, always true.
	IsComplete() bool

	// PackageName is the SSPI-style package name ("NTLM", "Kerberos").
	// It doubles as the HTTP auth scheme on the wire.
	PackageName() string

	// Release destroys the context.  The context is unusable afterwards.
	Release()
}
