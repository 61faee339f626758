package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/germanamz/easel/pkg/tools/mcpserver"
)

const version = "0.1.0"

// runMCP serves the canvas tools of a single session over MCP on stdio.
func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file (default: .easel/config.yaml or easel.yaml)")
	easelDir := fs.String("easel-dir", ".easel", "path to .easel directory")
	envFile := fs.String("env", ".env", "path to .env file (ignored if missing)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := loadDotEnv(*envFile); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, _, err := buildEngine(*configPath, *easelDir)
	if err != nil {
		return err
	}

	// Stdout carries the MCP transport, so logs go to stderr.
	eng.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	sess := eng.NewSession()

	srv := mcpserver.New("easel", version)
	srv.RegisterToolBox(sess.Toolbox())

	return srv.Serve(ctx, os.Stdin, os.Stdout)
}
