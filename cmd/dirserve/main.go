// Package main serves one directory tree for browsing and download over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/f4ah6o/dirserve-go/internal/config"
	"github.com/f4ah6o/dirserve-go/internal/logging"
	"github.com/f4ah6o/dirserve-go/internal/sandbox"
	"github.com/f4ah6o/dirserve-go/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("dirserve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a .toml or .yaml config file")
	listen := fs.String("listen", config.DefaultListen, "Address to listen on")
	dir := fs.String("dir", "", "Directory to serve (default: current directory)")
	workers := fs.Int("workers", 0, "Connections handled at once (1 = sequential)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// Flags given on the command line win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen":
			cfg.Listen = *listen
		case "dir":
			cfg.Root = *dir
		case "workers":
			cfg.Workers = *workers
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cfg.Root = wd
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	resolver, err := sandbox.New(cfg.Root, sandbox.WithUnicodeFallback(cfg.UnicodeFallback))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🌐 Serving %s at %s\n", color.CyanString(resolver.Root()), color.GreenString("http://"+cfg.Listen))
	fmt.Println("Press Ctrl+C to stop")

	return server.New(cfg, resolver, log).ListenAndServe(ctx)
}
