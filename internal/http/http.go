// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
)

// Server is a blocking HTTP server that can be shut down gracefully.
type Server interface {
	Start(address string) error
	Shutdown(context.Context) error
}
