// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package kerberos implements the "Kerberos" security package using the
// GSS-API krb5 mechanism.  Credentials come from the environment's
// credential cache; a configured gateway identity is not consumed here.
package kerberos

import (
	"github.com/pkg/errors"

	"github.com/golang-auth/go-gssapi/v2"
	gsscommon "github.com/golang-auth/go-gssapi/v2/common"
	_ "github.com/golang-auth/go-gssapi/v2/krb5"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/pkg/loggable"
	"github.com/golang-auth/go-rpch/registry"
)

// PackageName is the SSPI-style name this engine registers under.
const PackageName = "Kerberos"

func init() {
	registry.Register(PackageName, New, common.PackageProps{
		Features: common.FeatChannelBindings | common.FeatMutualAuth,
	})
}

// Context is a Kerberos client security context for one gateway channel.
type Context struct {
	loggable.Loggable

	client    gssapi.Mech
	spn       string
	flags     gssapi.ContextFlag
	binding   *gsscommon.ChannelBinding
	initiated bool
	in        []byte
	out       []byte
	setup     bool
}

// New returns an unconfigured Kerberos context.
func New() common.SecurityContext {
	return &Context{
		client: gssapi.NewMech("kerberos_v5"),
	}
}

func (c *Context) SetupClient(cfg common.ContextConfig) error {
	if c.setup {
		return errors.New("kerberos: context already set up")
	}

	if cfg.TargetHost == "" {
		return errors.New("kerberos: target host not provided")
	}

	c.Loggable = cfg.Logger
	c.spn = cfg.TargetClass + "/" + cfg.TargetHost

	c.flags = gssapi.ContextFlagSequence
	if cfg.Flags&common.FlagMutualAuth != 0 {
		c.flags |= gssapi.ContextFlagMutual
	}
	if cfg.Flags&common.FlagConfidentiality != 0 {
		c.flags |= gssapi.ContextFlagInteg | gssapi.ContextFlagConf
	}

	if cfg.Binding != nil {
		c.binding = &gsscommon.ChannelBinding{
			Data: cfg.Binding.Data,
		}
	}

	if cfg.Identity != nil {
		c.Debugf("kerberos: configured identity ignored, using credential cache")
	}

	c.setup = true
	return nil
}

func (c *Context) Authenticate() (common.AuthVerdict, error) {
	if !c.setup {
		return 0, errors.New("kerberos: context not set up")
	}

	if c.IsComplete() {
		return common.VerdictDone, nil
	}

	in := c.in
	c.in = nil

	if !c.initiated {
		if err := c.client.Initiate(c.spn, c.flags, c.binding); err != nil {
			return 0, &common.AuthError{Package: PackageName, Err: err}
		}

		c.initiated = true
		in = []byte{}
		c.Debugf("kerberos: context initiated for %s", c.spn)
	}

	out, err := c.client.Continue(in)
	if err != nil {
		return 0, &common.AuthError{Package: PackageName, Err: err}
	}

	if out != nil {
		c.out = out
		return common.VerdictContinue, nil
	}

	return common.VerdictDone, nil
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
	if c.IsComplete() {
		c.Warnf("kerberos: token received after negotiation completed, ignoring")
		return
	}

	c.in = token
}

func (c *Context) IsComplete() bool {
	return c.initiated && c.client.IsEstablished()
}

func (c *Context) PackageName() string {
	return PackageName
}

func (c *Context) Release() {
	// the gateway tears the GSS context down with the HTTP connection,
	// no deletion token is exchanged
	c.in = nil
	c.out = nil
}
