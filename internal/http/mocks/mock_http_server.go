// SPDX-License-Identifier: Apache-2.0

package mocks

import "context"

type Server struct {
	StartFn    func(address string) error
	ShutdownFn func(context.Context) error
}

func (m *Server) Start(address string) error {
	return m.StartFn(address)
}

func (m *Server) Shutdown(ctx context.Context) error {
	return m.ShutdownFn(ctx)
}
