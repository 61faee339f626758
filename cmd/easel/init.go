package main

import (
	"flag"
	"fmt"

	"github.com/germanamz/easel/pkg/easeldir"
)

// runInit creates the .easel directory and writes a config produced by the
// interactive wizard.
func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dir := fs.String("easel-dir", ".easel", "path to .easel directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	configYAML, err := runWizard()
	if err != nil {
		return err
	}

	d := easeldir.New(*dir)

	if err := easeldir.BootstrapWithConfig(d, configYAML); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", d.Root())

	return nil
}
