// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package transport

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"

	"github.com/golang-auth/go-rpch/common"
)

const endpointPrefix = "tls-server-end-point:"

// EndpointBinding computes the RFC 5929 tls-server-end-point channel
// binding for the gateway's leaf certificate.  The hash follows the
// certificate's signature algorithm, with MD5 and SHA-1 promoted to
// SHA-256 as the RFC requires.
func EndpointBinding(cert *x509.Certificate) *common.ChannelBinding {
	var sum []byte

	switch cert.SignatureAlgorithm {
	case x509.SHA384WithRSA, x509.ECDSAWithSHA384, x509.SHA384WithRSAPSS:
		h := sha512.Sum384(cert.Raw)
		sum = h[:]
	case x509.SHA512WithRSA, x509.ECDSAWithSHA512, x509.SHA512WithRSAPSS:
		h := sha512.Sum512(cert.Raw)
		sum = h[:]
	default:
		h := sha256.Sum256(cert.Raw)
		sum = h[:]
	}

	data := make([]byte, 0, len(endpointPrefix)+len(sum))
	data = append(data, endpointPrefix...)
	data = append(data, sum...)

	return &common.ChannelBinding{Data: data}
}
