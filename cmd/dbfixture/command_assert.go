package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/compare"
)

// AssertCmd represents the assert command
type AssertCmd struct {
	Source   string   `help:"Data source name from configuration, or a database URL" short:"s"`
	Query    string   `help:"SQL query supplying the actual rows (requires --table)"`
	Table    string   `help:"Dataset table the query result is compared against"`
	Scenario []string `help:"Scenario names to activate"`
	Files    []string `arg:"" help:"Expected dataset files" type:"existingfile"`
}

// Run executes the assert command
func (cmd *AssertCmd) Run(appCtx *Context) error {
	if cmd.Query != "" && cmd.Table == "" {
		return ErrQueryRequiresTable
	}

	ctx := context.Background()

	config, ds, err := openSource(ctx, appCtx, cmd.Source)
	if err != nil {
		return err
	}
	defer ds.Close()

	set, err := loadDatasets(appCtx, config, cmd.Files, cmd.Scenario)
	if err != nil {
		return err
	}

	opts, err := comparisonOptions(config)
	if err != nil {
		return err
	}

	if cmd.Query != "" {
		expected, ok := set.Table(dbfixture.TableName(cmd.Table))
		if !ok {
			return fmt.Errorf("%w: %q", ErrTableNotInDataset, cmd.Table)
		}

		if err := compare.AssertEqualsByQuery(ctx, ds, expected, cmd.Query, opts...); err != nil {
			return err
		}
	} else {
		if err := compare.AssertEqualsDatabase(ctx, ds, set, opts...); err != nil {
			return err
		}
	}

	if !appCtx.Quiet {
		color.Green("no differences found")
	}

	return nil
}
