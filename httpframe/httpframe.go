// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.

// Package httpframe builds and parses the HTTP/1.1 framing that carries
// gateway handshake rounds.  Requests are serialized by hand because the
// tunnel declares content lengths for bodies that are never written by
// this layer; responses are parsed only as far as the header block,
// leaving the stream positioned on whatever follows.
package httpframe

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
)

// Context holds the per-channel fixed framing values: the gateway host
// and the request URI both channels address.
type Context struct {
	host string
	uri  string
}

// NewContext returns a framing context for the given gateway host.  An
// empty uri defaults to the RPC proxy endpoint.
func NewContext(host, uri string) *Context {
	if uri == "" {
		uri = "/rpc/rpcproxy.dll?localhost:3388"
	}

	return &Context{host: host, uri: uri}
}

func (c *Context) Host() string { return c.host }
func (c *Context) URI() string  { return c.uri }

// Request is one gateway HTTP request.  It is built, serialized and
// discarded within a single handshake round.
type Request struct {
	Method        string
	URI           string
	ContentLength uint64
	AuthScheme    string // auth scheme name, empty when no token is carried
	AuthParam     string // base64 token
}

// SetAuth attaches the auth scheme and encoded token to the request.
func (r *Request) SetAuth(scheme, param string) {
	r.AuthScheme = scheme
	r.AuthParam = param
}

// WriteRequest serializes req against the framing context.  The header
// set matches what the RPC proxy expects from a tunnel client.
func (c *Context) WriteRequest(req *Request) ([]byte, error) {
	if c == nil || req == nil {
		return nil, errors.New("httpframe: no framing context or request")
	}

	if req.Method == "" || req.URI == "" {
		return nil, errors.New("httpframe: request method or URI missing")
	}

	var b bytes.Buffer

	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(req.URI)
	b.WriteString(" HTTP/1.1\r\n")

	b.WriteString("Cache-Control: no-cache\r\n")
	b.WriteString("Connection: Keep-Alive\r\n")
	b.WriteString("Pragma: no-cache\r\n")
	b.WriteString("Accept: application/rpc\r\n")
	b.WriteString("User-Agent: MSRPC\r\n")

	b.WriteString("Host: ")
	b.WriteString(c.host)
	b.WriteString("\r\n")

	b.WriteString("Content-Length: ")
	b.WriteString(strconv.FormatUint(req.ContentLength, 10))
	b.WriteString("\r\n")

	if req.AuthScheme != "" {
		b.WriteString("Authorization: ")
		b.WriteString(req.AuthScheme)
		if req.AuthParam != "" {
			b.WriteByte(' ')
			b.WriteString(req.AuthParam)
		}
		b.WriteString("\r\n")
	}

	b.WriteString("\r\n")

	return b.Bytes(), nil
}
