package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	dbfixture "github.com/shibukawa/dbfixture"
	"github.com/shibukawa/dbfixture/tableorder"
)

// OrderCmd represents the order command
type OrderCmd struct {
	Source     string   `help:"Data source name from configuration, or a database URL" short:"s"`
	Ordering   string   `help:"Table ordering strategy (AUTO, FOREIGN_KEY, ALPHABETICAL, LOAD_ORDER_FILE)"`
	SchemaJSON string   `help:"tbls schema JSON to resolve against instead of a live database" type:"existingfile"`
	Tables     []string `arg:"" help:"Table names to resolve"`
}

// Run executes the order command
func (cmd *OrderCmd) Run(appCtx *Context) error {
	ctx := context.Background()

	names := make([]dbfixture.TableName, 0, len(cmd.Tables))
	for _, table := range cmd.Tables {
		names = append(names, dbfixture.TableName(table))
	}

	// A schema document answers without touching any database.
	if cmd.SchemaJSON != "" {
		config, err := dbfixture.LoadConfig(appCtx.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		strategy, err := resolveOrdering(config, cmd.Ordering)
		if err != nil {
			return err
		}

		src, err := tableorder.NewTblsSource(cmd.SchemaJSON)
		if err != nil {
			return err
		}

		return printOrder(appCtx, tableorder.Resolve(ctx, strategy, names, src))
	}

	config, ds, err := openSource(ctx, appCtx, cmd.Source)
	if err != nil {
		return err
	}
	defer ds.Close()

	strategy, err := resolveOrdering(config, cmd.Ordering)
	if err != nil {
		return err
	}

	source := &tableorder.DBSource{DB: ds.DB, Dialect: ds.Dialect, Schema: ds.Schema}

	return printOrder(appCtx, tableorder.Resolve(ctx, strategy, names, source))
}

func printOrder(appCtx *Context, res tableorder.Result) error {
	if res.Degraded && !appCtx.Quiet {
		color.Yellow("Ordering degraded: %s", res.Reason)
	}

	for _, table := range res.Tables {
		fmt.Println(table)
	}

	return nil
}
