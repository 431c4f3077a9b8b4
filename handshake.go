// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package rpch

import (
	"bufio"
	"encoding/base64"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/golang-auth/go-rpch/common"
	"github.com/golang-auth/go-rpch/httpframe"
)

// maxTokenLength is the largest decoded token the wire format can
// represent.
const maxTokenLength = math.MaxUint32

// SendAuthRequest runs one negotiation step and writes the resulting
// handshake request to the channel transport.  An error from the step
// itself is connection-fatal; a framing or write error aborts only this
// channel.
func (c *Channel) SendAuthRequest() error {
	if c.transport == nil || c.http == nil || c.auth == nil {
		return common.ErrNoContext
	}

	verdict, err := c.auth.Authenticate()
	if err != nil {
		return errors.Wrapf(err, "%s channel authenticate step", c.dir)
	}

	var token []byte
	if c.auth.HaveOutputToken() {
		token = c.auth.TakeOutputToken()
	}

	buf, err := buildAuthRequest(c.http, c.dir.Method(), c.contentLength(verdict), token, c.auth.PackageName())
	if err != nil {
		return errors.Wrapf(err, "%s channel build auth request", c.dir)
	}

	n, err := c.transport.Write(buf)
	if err != nil {
		return errors.Wrapf(err, "%s channel write", c.dir)
	}
	if n < len(buf) {
		return errors.Wrapf(io.ErrShortWrite, "%s channel write", c.dir)
	}

	c.Debugf("%s channel: auth request sent, token %d bytes", c.dir, len(token))
	return nil
}

// contentLength selects the Content-Length the next handshake request
// declares.  Zero exactly when the negotiation step completed with
// nothing left to send.
func (c *Channel) contentLength(verdict common.AuthVerdict) uint64 {
	if verdict == common.VerdictDone {
		return 0
	}

	if c.dir == DirectionOut {
		if c.replacement {
			return outChannelReplaceLength
		}

		return outChannelRequestLength
	}

	return inChannelOpenLength
}

// buildAuthRequest constructs and serializes one handshake request.  A
// request built with no token carries no auth header at all.
func buildAuthRequest(http *httpframe.Context, method string, contentLength uint64, token []byte, scheme string) ([]byte, error) {
	if http == nil || method == "" {
		return nil, common.ErrNoContext
	}

	req := &httpframe.Request{
		Method:        method,
		URI:           http.URI(),
		ContentLength: contentLength,
	}

	if token != nil {
		req.SetAuth(scheme, base64.StdEncoding.EncodeToString(token))
	}

	return http.WriteRequest(req)
}

// RecvAuthResponse extracts the gateway's token from a handshake
// response and hands it to the security context.  A response with no
// matching auth header, or with an empty token, is a legitimate round
// and succeeds without touching the context.
func (c *Channel) RecvAuthResponse(resp *httpframe.Response) error {
	if resp == nil || c.auth == nil {
		return common.ErrNoContext
	}

	token64, ok := resp.AuthToken(c.auth.PackageName())
	if !ok {
		return nil
	}

	token, err := decodeToken(token64, maxTokenLength)
	if err != nil {
		return errors.Wrapf(err, "%s channel auth response", c.dir)
	}

	if len(token) > 0 {
		// ownership of the buffer moves to the context
		c.auth.GiveInputToken(token)
	}

	return nil
}

func decodeToken(token64 string, limit uint64) ([]byte, error) {
	token, err := base64.StdEncoding.DecodeString(token64)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64 token")
	}

	if uint64(len(token)) > limit {
		return nil, common.ErrTokenTooLarge
	}

	return token, nil
}

// Handshake drives the channel's negotiation to completion: one request
// per round, reading the gateway's reply between rounds.  The reply to
// the final request is left unread for the tunnel layer.  Termination
// on repeated rejection is the security context's duty: a context that
// is stepped again without the input it needs must hard-fail.
func (c *Channel) Handshake(r *bufio.Reader) error {
	for {
		if err := c.SendAuthRequest(); err != nil {
			return err
		}

		if c.AuthComplete() {
			return nil
		}

		resp, err := httpframe.ReadResponse(r)
		if err != nil {
			return errors.Wrapf(err, "%s channel read auth response", c.dir)
		}

		if err := c.RecvAuthResponse(resp); err != nil {
			return err
		}
	}
}
