package main

import (
	"fmt"
	"os"

	"github.com/kestrel-tools/xfiledump/cmd"
	"github.com/kestrel-tools/xfiledump/internal/config"
	"github.com/kestrel-tools/xfiledump/internal/logger"
)

func main() {
	configFile := os.Getenv("XFILEDUMP_CONFIG")

	if err := config.Initialize(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	if err := initLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cmd.Execute()
}

func initLogging() error {
	return logger.Init(logger.Config{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	})
}
