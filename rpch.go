// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package rpch drives the authentication handshake on the two HTTP
// channels of an RPC-over-HTTP gateway connection.  Each channel steps
// an opaque security context (NTLM by default, see the ntlm and
// kerberos packages), carrying its tokens in HTTP auth headers until
// the context completes and the channel can switch to raw RPC traffic.
//
// Channel operations are not synchronized: a caller must serialize all
// send/receive/init/teardown calls against one channel.
package rpch

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/httpframe"
	"github.com/golang-auth/go-rpch/pkg/loggable"

	_ "github.com/golang-auth/go-rpch/ntlm"
)

// Direction distinguishes the client-to-server (in) and
// server-to-client (out) HTTP channels of a gateway connection.
type Direction int

const (
	DirectionIn Direction = iota
	DirectionOut
)

func (d Direction) String() string {
	if d == DirectionOut {
		return "out"
	}

	return "in"
}

// Method returns the HTTP method token the gateway protocol assigns to
// this channel direction.
func (d Direction) Method() string {
	if d == DirectionOut {
		return "RPC_OUT_DATA"
	}

	return "RPC_IN_DATA"
}

// Content-Length literals mandated by the gateway protocol.  The
// inbound value declares an open-ended body whose true length is not
// known until the tunnel is live; the outbound values are the fixed
// sizes of the final handshake leg for a fresh and a replacement
// channel.  Preserve them exactly.
const (
	inChannelOpenLength     = 0x40000000
	outChannelRequestLength = 76
	outChannelReplaceLength = 120
)

// Channel is one HTTP channel of a gateway connection.  The security
// context is owned by the connection and borrowed here: it is nil
// before InitAuth and after TeardownAuth.
type Channel struct {
	loggable.Loggable

	dir         Direction
	transport   io.Writer
	http        *httpframe.Context
	auth        common.SecurityContext
	binding     *common.ChannelBinding
	replacement bool
}

type ChannelOption func(*Channel) error

// NewChannel creates a channel over an established transport.
func NewChannel(dir Direction, transport io.Writer, http *httpframe.Context, opts ...ChannelOption) (*Channel, error) {
	if transport == nil || http == nil {
		return nil, common.ErrNoContext
	}

	c := &Channel{
		dir:       dir,
		transport: transport,
		http:      http,
	}

	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// WithReplacement marks an outbound channel as replacing an existing
// one (reconnect), which changes the final handshake leg's declared
// content length.
func WithReplacement() ChannelOption {
	return func(c *Channel) error {
		if c.dir != DirectionOut {
			return errors.New("rpch: only outbound channels can be replacements")
		}

		c.replacement = true
		return nil
	}
}

// WithChannelBinding supplies the TLS channel binding the negotiation
// must be tied to.
func WithChannelBinding(cb *common.ChannelBinding) ChannelOption {
	return func(c *Channel) error {
		c.binding = cb
		return nil
	}
}

func WithDebugLogger(l *log.Logger) ChannelOption { return withLogger(loggable.WithDebugLogger(l)) }
func WithInfoLogger(l *log.Logger) ChannelOption  { return withLogger(loggable.WithInfoLogger(l)) }
func WithWarnLogger(l *log.Logger) ChannelOption  { return withLogger(loggable.WithWarnLogger(l)) }
func WithErrorLogger(l *log.Logger) ChannelOption { return withLogger(loggable.WithErrorLogger(l)) }

func withLogger(o loggable.LoggableOption) ChannelOption {
	return func(c *Channel) error {
		return o(&c.Loggable)
	}
}

// Direction returns the channel's direction.
func (c *Channel) Direction() Direction {
	return c.dir
}
