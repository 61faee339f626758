package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/germanamz/easel/pkg/engine"
)

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "init":
			if err := runInit(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "serve":
			if err := runServe(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "mcp":
			if err := runMCP(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: easel [flags]\n       easel <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n  init   Initialize a .easel directory with default structure and config\n  serve  Run the websocket bridge for browser frontends\n  mcp    Serve the canvas tools over MCP on stdio\n")
	}

	configPath := flag.String("config", "", "path to configuration file (default: .easel/config.yaml or easel.yaml)")
	easelDir := flag.String("easel-dir", ".easel", "path to .easel directory")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	verbose := flag.Bool("verbose", false, "show tool results in the console")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := runConsole(*configPath, *easelDir, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine loads config and assembles the engine shared by the console,
// serve and mcp commands.
func buildEngine(configPath, easelDirPath string) (*engine.Engine, engine.Config, error) {
	resolved := resolveConfigPath(configPath, easelDirPath)

	cfg, err := engine.LoadConfig(resolved)
	if err != nil {
		return nil, engine.Config{}, err
	}
	cfg.EaselDir = easelDirPath

	eng, err := engine.New(cfg)
	if err != nil {
		return nil, engine.Config{}, err
	}

	return eng, cfg, nil
}

// runConsole starts the interactive dev console against a live engine.
func runConsole(configPath, easelDirPath string, verbose bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, _, err := buildEngine(configPath, easelDirPath)
	if err != nil {
		return err
	}

	sess := eng.NewSession()

	model := newAppModel(ctx, sess, eng, verbose)
	p := tea.NewProgram(model)

	// Send the program reference so the model can start the event bridge.
	go func() {
		p.Send(programReadyMsg{program: p})
	}()

	_, err = p.Run()
	return err
}
