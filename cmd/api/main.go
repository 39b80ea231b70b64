package main

import (
	"fmt"
	"os"

	"github.com/PravdaST/testograph-sync-backend/internal/cli"
	"github.com/PravdaST/testograph-sync-backend/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseServeFlags()

	var cfg *config.Config
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", flags.ConfigFile, err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrEnv()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
