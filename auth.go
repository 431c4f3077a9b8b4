// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package rpch

import (
	"context"

	"github.com/pkg/errors"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/registry"
)

// DefaultAuthPackage is the security package the gateway protocol
// negotiates with unless configured otherwise.
const DefaultAuthPackage = "NTLM"

// targetClass is the service class of a gateway SPN.
const targetClass = "HTTP"

// CredentialOutcome classifies the result of resolving gateway
// credentials from a CredentialSource.
type CredentialOutcome int

const (
	// CredentialSuccess means the source produced an identity.
	CredentialSuccess CredentialOutcome = iota

	// CredentialSkip means the source declined to interfere; the
	// configured static credentials are used.
	CredentialSkip

	// CredentialNone means the operator provided no credentials; the
	// negotiation proceeds with an anonymous identity.
	CredentialNone

	// CredentialCancelled means the operator cancelled credential
	// entry.  This aborts the connection.
	CredentialCancelled
)

// CredentialSource resolves the gateway identity, eg. by prompting the
// operator or consulting a store.  Resolution is the one point of the
// handshake where cancellation is observed.
type CredentialSource interface {
	GatewayCredentials(ctx context.Context) (*common.Identity, CredentialOutcome, error)
}

// GatewayConfig carries the settings a channel needs to authenticate to
// its gateway.
type GatewayConfig struct {
	Hostname string // gateway host, also the SPN host part

	// Static credentials.  An empty Username negotiates anonymously.
	Username string
	Domain   string
	Password string

	// AuthPackage selects the security package; empty means
	// DefaultAuthPackage.
	AuthPackage string

	// Credentials optionally resolves the identity dynamically; when
	// nil the static settings above are used as-is.
	Credentials CredentialSource
}

// InitAuth resolves credentials and creates the channel's security
// context, configured for the client role against the gateway with
// confidentiality required, bound to the channel's TLS session.
func (c *Channel) InitAuth(ctx context.Context, cfg *GatewayConfig) error {
	if c.transport == nil || c.http == nil || cfg == nil {
		return common.ErrNoContext
	}

	identity, forceAnonymous, err := c.resolveCredentials(ctx, cfg)
	if err != nil {
		return err
	}

	name := cfg.AuthPackage
	if name == "" {
		name = DefaultAuthPackage
	}

	sec := registry.New(name)
	if sec == nil {
		return errors.WithMessage(common.ErrNoPackage, name)
	}

	if identity == nil && !forceAnonymous && cfg.Username != "" {
		identity = common.NewIdentity(cfg.Username, cfg.Domain, cfg.Password)
	}
	defer identity.Wipe()

	props := registry.Properties(name)
	if c.binding != nil && props.Features&common.FeatChannelBindings == 0 {
		c.Warnf("security package %s cannot honour the TLS channel binding", name)
	}

	err = sec.SetupClient(common.ContextConfig{
		Logger:      c.Loggable,
		TargetClass: targetClass,
		TargetHost:  cfg.Hostname,
		Identity:    identity,
		Flags:       common.FlagConfidentiality,
		Binding:     c.binding,
	})
	if err != nil {
		sec.Release()
		return errors.Wrapf(err, "set up %s context for %s channel", name, c.dir)
	}

	c.auth = sec
	return nil
}

// resolveCredentials runs the configured CredentialSource, mapping its
// outcome onto the handshake's escalation levels.  forceAnonymous is
// true when the operator explicitly provided no credentials, which
// overrides any static username.
func (c *Channel) resolveCredentials(ctx context.Context, cfg *GatewayConfig) (identity *common.Identity, forceAnonymous bool, err error) {
	if cfg.Credentials == nil {
		return nil, false, nil
	}

	identity, outcome, err := cfg.Credentials.GatewayCredentials(ctx)

	if ctx.Err() != nil || outcome == CredentialCancelled {
		return nil, false, common.ErrCancelled
	}

	if err != nil {
		return nil, false, errors.Wrap(err, "resolve gateway credentials")
	}

	switch outcome {
	case CredentialSuccess:
		return identity, false, nil
	case CredentialSkip:
		return nil, false, nil
	case CredentialNone:
		c.Infof("no gateway credentials provided, using anonymous identity")
		return nil, true, nil
	}

	return nil, false, errors.Errorf("unexpected credential outcome %d", outcome)
}

// AuthComplete reports whether the channel's negotiation reached its
// terminal state.  Once true it stays true for the channel's lifetime.
func (c *Channel) AuthComplete() bool {
	return c.auth != nil && c.auth.IsComplete()
}

// TeardownAuth releases the channel's security context.  Calling it on
// an already-cleared channel is a no-op.
func (c *Channel) TeardownAuth() {
	if c.auth == nil {
		return
	}

	c.auth.Release()
	c.auth = nil
}
