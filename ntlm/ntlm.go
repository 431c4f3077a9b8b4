// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package ntlm implements the "NTLM" security package on top of
// github.com/Azure/go-ntlmssp.  The gateway protocol defaults to this
// package for channel authentication.
package ntlm

import (
	"github.com/Azure/go-ntlmssp"
	"github.com/pkg/errors"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/pkg/loggable"
	"github.com/golang-auth/go-rpch/registry"
)

// PackageName is the SSPI-style name this engine registers under; it is
// also the HTTP auth scheme it negotiates with.
const PackageName = "NTLM"

func init() {
	registry.Register(PackageName, New, common.PackageProps{
		Features: common.FeatAnonymous,
	})
}

type state uint8

const (
	stateNegotiate state = iota // next step emits the NEGOTIATE message
	stateChallenge              // waiting for the server CHALLENGE
	stateComplete               // AUTHENTICATE produced, nothing more to do
)

// Context is an NTLM client security context for one gateway channel.
type Context struct {
	loggable.Loggable

	user         string
	domain       string
	password     string
	domainNeeded bool
	anonymous    bool

	state state
	out   []byte
	in    []byte
	setup bool
}

// New returns an unconfigured NTLM context.
func New() common.SecurityContext {
	return &Context{}
}

func (c *Context) SetupClient(cfg common.ContextConfig) error {
	if c.setup {
		return errors.New("ntlm: context already set up")
	}

	c.Loggable = cfg.Logger

	if cfg.Identity == nil {
		c.anonymous = true
		c.Debugf("ntlm: no identity, negotiating anonymously")
	} else {
		c.user, c.domain, c.domainNeeded = ntlmssp.GetDomain(cfg.Identity.User)
		if cfg.Identity.Domain != "" {
			c.domain = cfg.Identity.Domain
			c.domainNeeded = false
		}
		c.password = string(cfg.Identity.Password)
	}

	// TODO: inject MsvAvChannelBindings into the NTLMv2 AV pairs so
	// EPA-protected gateways accept us; go-ntlmssp has no hook for it.
	if cfg.Binding != nil && cfg.Binding.Critical {
		return errors.New("ntlm: critical channel binding requested but not supported")
	}

	c.setup = true
	return nil
}

func (c *Context) Authenticate() (common.AuthVerdict, error) {
	if !c.setup {
		return 0, errors.New("ntlm: context not set up")
	}

	switch c.state {
	case stateNegotiate:
		msg, err := ntlmssp.NewNegotiateMessage(c.domain, "")
		if err != nil {
			return 0, &common.AuthError{Package: PackageName, Err: err}
		}

		c.out = msg
		c.state = stateChallenge
		c.Debugf("ntlm: NEGOTIATE ready (%d bytes)", len(msg))
		return common.VerdictContinue, nil

	case stateChallenge:
		if c.in == nil {
			return 0, &common.AuthError{
				Package: PackageName,
				Err:     errors.New("no CHALLENGE received from gateway"),
			}
		}

		msg, err := ntlmssp.ProcessChallenge(c.in, c.user, c.password, c.domainNeeded)
		c.in = nil
		if err != nil {
			return 0, &common.AuthError{Package: PackageName, Err: err}
		}

		c.out = msg
		c.state = stateComplete
		c.Debugf("ntlm: AUTHENTICATE ready (%d bytes)", len(msg))
		return common.VerdictContinue, nil

	default:
		return common.VerdictDone, nil
	}
}

func (c *Context) HaveOutputToken() bool {
	return c.out != nil
}

func (c *Context) TakeOutputToken() []byte {
	t := c.out
	c.out = nil
	return t
}

func (c *Context) GiveInputToken(token []byte) {
	if c.state == stateComplete {
		c.Warnf("ntlm: token received after negotiation completed, ignoring")
		return
	}

	c.in = token
}

func (c *Context) IsComplete() bool {
	return c.state == stateComplete
}

func (c *Context) PackageName() string {
	return PackageName
}

func (c *Context) Release() {
	c.password = ""
	c.out = nil
	c.in = nil
}
