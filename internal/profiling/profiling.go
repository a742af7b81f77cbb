// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	loglib "github.com/wikyd/sunspot/pkg/log"
)

// StartProfilingServer exposes the /debug/pprof endpoints on the address on
// input. The returned server must be closed by the caller.
func StartProfilingServer(address string, logger loglib.Logger) *http.Server {
	// the net/http/pprof import registers the handlers on the default mux
	srv := &http.Server{
		Addr:              address,
		Handler:           http.DefaultServeMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loglib.NewLogger(logger).Error(err, "profiling server stopped", loglib.Fields{"address": address})
		}
	}()

	return srv
}

func StartCPUProfile(fileName string) (func(), error) {
	if fileName == "" {
		fileName = "cpu.prof"
	}
	cpuFile, err := os.Create(fileName)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile file: %w", err)
	}

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		cpuFile.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpuFile.Close()
	}, nil
}

func CreateMemoryProfile(fileName string) error {
	if fileName == "" {
		fileName = "mem.prof"
	}
	memFile, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer memFile.Close()

	runtime.GC()
	// allocs matches the profile produced by go test -memprofile
	if err := pprof.Lookup("allocs").WriteTo(memFile, 0); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	return nil
}
