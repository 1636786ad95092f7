package main

import (
	"github.com/wingmanlabs/wingman/cmd"
	"github.com/wingmanlabs/wingman/internal/logging"
	"github.com/wingmanlabs/wingman/internal/status"
)

func main() {
	defer logging.RecoverPanic("main", func() {
		status.Error("Application terminated due to unhandled panic")
	})

	cmd.Execute()
}
