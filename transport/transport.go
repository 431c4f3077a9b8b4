// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package transport wraps the TLS byte stream a gateway channel runs
// over.  It adds write deadlines, a buffered reader for response
// parsing, and derivation of the TLS channel binding the handshake is
// tied to.
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/golang-auth/go-rpch/common"
)

// Conn is an established gateway channel stream.
type Conn struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
}

type ConnOption func(*Conn)

// WithTimeout sets a per-write deadline.  Zero means no deadline.
func WithTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.timeout = d
	}
}

// NewConn wraps an already-established stream, typically a *tls.Conn.
func NewConn(conn net.Conn, opts ...ConnOption) *Conn {
	c := &Conn{
		conn: conn,
		br:   bufio.NewReader(conn),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// Dial establishes a TLS stream to the gateway.
func Dial(ctx context.Context, addr string, cfg *tls.Config, opts ...ConnOption) (*Conn, error) {
	d := tls.Dialer{Config: cfg}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "transport: dial %s", addr)
	}

	return NewConn(conn, opts...), nil
}

// Write sends p in full.  A nil error means every byte was accepted.
func (c *Conn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, errors.Wrap(err, "transport: set write deadline")
		}
	}

	n, err := c.conn.Write(p)
	if err != nil {
		return n, errors.Wrap(err, "transport: write")
	}
	if n != len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

// Reader returns the buffered read side of the stream.
func (c *Conn) Reader() *bufio.Reader {
	return c.br
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Binding derives the channel binding for the stream's TLS session.
// Returns nil when the stream is not TLS or the handshake presented no
// peer certificate.
func (c *Conn) Binding() *common.ChannelBinding {
	tlsConn, ok := c.conn.(*tls.Conn)
	if !ok {
		return nil
	}

	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil
	}

	return EndpointBinding(state.PeerCertificates[0])
}
