// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package httpframe

import (
	"bufio"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Response is a parsed gateway response.  Only the status and headers
// are consumed; anything after the header block stays in the reader.
type Response struct {
	StatusCode int
	header     textproto.MIMEHeader
}

// ReadResponse parses the status line and header block of one HTTP
// response from r.
func ReadResponse(r *bufio.Reader) (*Response, error) {
	tp := textproto.NewReader(r)

	line, err := tp.ReadLine()
	if err != nil {
		return nil, errors.Wrap(err, "httpframe: read status line")
	}

	// "HTTP/1.1 200 Success with realm"
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 || !strings.HasPrefix(parts[0], "HTTP/") {
		return nil, errors.Errorf("httpframe: malformed status line %q", line)
	}

	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, errors.Errorf("httpframe: malformed status code %q", parts[1])
	}

	header, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, errors.Wrap(err, "httpframe: read headers")
	}

	return &Response{StatusCode: code, header: header}, nil
}

// ContentLength returns the declared body length, or 0 when absent.
func (r *Response) ContentLength() uint64 {
	v := r.header.Get("Content-Length")
	if v == "" {
		return 0
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// AuthToken looks up the WWW-Authenticate value for the named scheme.
// The returned token may be empty: a bare scheme with no parameter is a
// legitimate handshake round.  ok is false only when no header matches
// the scheme at all.
func (r *Response) AuthToken(scheme string) (token string, ok bool) {
	for _, v := range r.header.Values("Www-Authenticate") {
		name := v
		param := ""
		if i := strings.IndexByte(v, ' '); i >= 0 {
			name = v[:i]
			param = strings.TrimSpace(v[i+1:])
		}

		if strings.EqualFold(name, scheme) {
			return param, true
		}
	}

	return "", false
}
