package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/larose/lynx-percolator/search/logging"
)

func main() {
	mode := flag.String("mode", "", "Mode to run: index or load")
	configPath := flag.String("config", "", "Path to a YAML config file")
	profile := flag.Bool("profile", false, "Write a CPU profile to <mode>.cpu.pprof")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger := logging.WithComponent("percolator_benchmark")

	var run func(*Config, *slog.Logger) error
	switch *mode {
	case "index":
		run = indexQueries
	case "load":
		run = loadQueries
	default:
		fmt.Println("Usage: go run . -mode=index|load [-config=config.yaml] [-profile]")
		os.Exit(1)
	}

	stopProfiler := func() {}
	if *profile {
		stopProfiler, err = startCpuProfiler(*mode+".cpu.pprof", logger)
		if err != nil {
			logger.Error("profiler", "error", err)
			os.Exit(1)
		}
	}

	err = run(cfg, logger)
	stopProfiler()

	if err != nil {
		logger.Error(*mode+" failed", "error", err)
		os.Exit(1)
	}
}
