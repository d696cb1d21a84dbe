package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/shibukawa/dbfixture/compare"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
}

// CLI represents the command-line interface
var CLI struct {
	Config  string `help:"Configuration file path" default:"dbfixture.yaml"`
	Verbose bool   `help:"Enable verbose output" short:"v"`
	Quiet   bool   `help:"Suppress output" short:"q"`
	NoColor bool   `help:"Disable colored output"`

	Load    LoadCmd    `cmd:"" help:"Load dataset files into a database"`
	Assert  AssertCmd  `cmd:"" help:"Compare live database contents against dataset files"`
	Order   OrderCmd   `cmd:"" help:"Resolve the write order for a list of tables"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run() error {
	fmt.Println("dbfixture v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI)

	if CLI.NoColor {
		color.NoColor = true
	}

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		// Assertion failures carry a difference report; print that instead
		// of the error chain.
		var assertionErr *compare.AssertionError
		if errors.As(err, &assertionErr) {
			if !CLI.Quiet {
				compare.RenderColor(os.Stdout, assertionErr.Report)
			}

			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
