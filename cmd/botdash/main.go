package main

import (
	"os"

	"github.com/aussiebroadwan/botdash/internal/auth/app"
)

func main() {
	cmd := newRootCmd()
	cmd.Version = app.BuildVersion

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
