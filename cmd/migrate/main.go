// Command migrate applies or rolls back the video metadata schema.
package main

import (
	"fmt"
	"os"

	"github.com/hszk-dev/vidlib/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg.Database).Execute(); err != nil {
		os.Exit(1)
	}
}
