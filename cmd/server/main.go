// Package main is the entry point for the dmf2midi API server
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/james-see/dmf2midi/pkg/api"
	"github.com/james-see/dmf2midi/pkg/config"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides the config file)")
	cfgPath := flag.String("config", "", "Config file (default ~/.config/dmf2midi/config.json)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.LoadFrom(*cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	fmt.Printf("Starting dmf2midi API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	if err := api.StartServer(cfg.Server.Port, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
