// Copyright 2022 Jake Scott. All rights reserved.
// Use of this source code is governed by the Apache License
// version 2.0 that can be found in the LICENSE file.
package rpch

import (
	"errors"

	"github.com/golang-auth/go-rpch/common"
)

// IsConnectionFatal reports whether err must abort the whole gateway
// connection rather than just the channel it occurred on: operator
// cancellation during credential entry, or a hard failure from the
// security context itself.
func IsConnectionFatal(err error) bool {
	if errors.Is(err, common.ErrCancelled) {
		return true
	}

	var authErr *common.AuthError
	return errors.As(err, &authErr)
}
