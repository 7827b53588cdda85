package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sitebuilder/internal/app"
	"sitebuilder/internal/config"
	"sitebuilder/internal/logger"
)

func main() {
	home, _ := os.UserHomeDir()
	configPath := flag.String("config", filepath.Join(home, ".config", "sitebuilder", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := app.ServeMCP(cfg, log); err != nil {
		log.Error("exited with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
