package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
)

// startCpuProfiler writes a CPU profile to filename until the returned
// function is called.
func startCpuProfiler(filename string, logger *slog.Logger) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		if err := f.Close(); err != nil {
			logger.Error("closing CPU profile", "file", filename, "error", err)
		}
	}, nil
}
